package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func audVerifier(aud ...string) Verifier {
	return VerifierFunc(func(_ context.Context, raw string) (*Claims, error) {
		if raw != "good" {
			return nil, ErrTokenInvalid
		}
		return &Claims{Subject: "u1", Audience: aud}, nil
	})
}

func multiResolver(t *testing.T, v Verifier, allowed ...string) *Resolver {
	t.Helper()
	r, err := NewResolver(ResolverConfig{
		MultiTenant:      true,
		HeaderName:       "X-IDToken",
		CookieName:       "X-IDToken",
		Prefix:           "Bearer",
		AllowedAudiences: allowed,
	}, v)
	require.NoError(t, err)
	return r
}

func TestResolver_SingleTenant(t *testing.T) {
	r, err := NewResolver(ResolverConfig{FixedAudience: "client"}, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/users/", nil)
	res, err := r.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "client", res.Audience)
	assert.Nil(t, res.Claims)
}

func TestResolver_TokenSources(t *testing.T) {
	r := multiResolver(t, audVerifier("tenant-a"))

	cases := []struct {
		name  string
		setup func(*http.Request)
	}{
		{"header", func(req *http.Request) { req.Header.Set("X-IDToken", "Bearer good") }},
		{"header lowercase scheme", func(req *http.Request) { req.Header.Set("X-IDToken", "bearer good") }},
		{"cookie", func(req *http.Request) { req.AddCookie(&http.Cookie{Name: "X-IDToken", Value: "Bearer%20good"}) }},
		{"authorization", func(req *http.Request) { req.Header.Set("Authorization", "Bearer good") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/", nil)
			tc.setup(req)
			res, err := r.Resolve(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, "tenant-a", res.Audience)
			assert.Equal(t, "u1", res.Claims.Subject)
		})
	}
}

func TestResolver_Failures(t *testing.T) {
	ctx := context.Background()
	withToken := func(v string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/users/", nil)
		if v != "" {
			req.Header.Set("X-IDToken", v)
		}
		return req
	}

	_, err := multiResolver(t, audVerifier("a")).Resolve(ctx, withToken(""))
	assert.ErrorIs(t, err, ErrTokenMissing)

	_, err = multiResolver(t, audVerifier("a")).Resolve(ctx, withToken("Basic good"))
	assert.ErrorIs(t, err, ErrTokenMissing)

	_, err = multiResolver(t, audVerifier("a")).Resolve(ctx, withToken("Bearer bad"))
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = multiResolver(t, audVerifier()).Resolve(ctx, withToken("Bearer good"))
	assert.ErrorIs(t, err, ErrAudienceMissing)

	_, err = multiResolver(t, audVerifier("a", "b")).Resolve(ctx, withToken("Bearer good"))
	assert.ErrorIs(t, err, ErrAudienceNotAllowed)

	_, err = multiResolver(t, audVerifier("a"), "b").Resolve(ctx, withToken("Bearer good"))
	assert.ErrorIs(t, err, ErrAudienceNotAllowed)

	// Errores ajenos al paquete (ej. JWKS caído) también son 401.
	down := VerifierFunc(func(context.Context, string) (*Claims, error) { return nil, errors.New("dial tcp: refused") })
	_, err = multiResolver(t, down).Resolve(ctx, withToken("Bearer good"))
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.True(t, IsAuthError(err))
}

func TestNewResolver_Config(t *testing.T) {
	_, err := NewResolver(ResolverConfig{MultiTenant: true}, nil)
	assert.Error(t, err)
	_, err = NewResolver(ResolverConfig{}, nil)
	assert.Error(t, err)
}
