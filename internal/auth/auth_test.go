package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGoogle levanta discovery + JWKS con una clave RSA.
type fakeGoogle struct {
	srv       *httptest.Server
	key       *rsa.PrivateKey
	kid       string
	jwksHits  atomic.Int32
	notModify bool
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &fakeGoogle{key: key, kid: "kid-1"}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":   "https://accounts.google.com",
			"jwks_uri": f.srv.URL + "/certs",
		})
	})
	mux.HandleFunc("/certs", func(w http.ResponseWriter, r *http.Request) {
		f.jwksHits.Add(1)
		if f.notModify && r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{{
			"kty": "RSA",
			"alg": "RS256",
			"kid": f.kid,
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}}})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGoogle) verifier() *GoogleVerifier {
	return NewGoogleVerifier(GoogleConfig{
		DiscoveryURL: f.srv.URL + "/.well-known/openid-configuration",
		Leeway:       30 * time.Second,
		HTTPClient:   f.srv.Client(),
	})
}

func (f *fakeGoogle) sign(t *testing.T, claims jwtv5.MapClaims) string {
	t.Helper()
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tk.Header["kid"] = f.kid
	s, err := tk.SignedString(f.key)
	require.NoError(t, err)
	return s
}

func googleClaims(aud any) jwtv5.MapClaims {
	return jwtv5.MapClaims{
		"iss":   "https://accounts.google.com",
		"sub":   "1234567890",
		"aud":   aud,
		"email": "ana@example.com",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestGoogleVerifier_ValidToken(t *testing.T) {
	f := newFakeGoogle(t)
	v := f.verifier()

	c, err := v.Verify(context.Background(), f.sign(t, googleClaims("tenant-a")))
	require.NoError(t, err)
	assert.Equal(t, []string{"tenant-a"}, c.Audience)
	assert.Equal(t, "1234567890", c.Subject)
	assert.Equal(t, "ana@example.com", c.Email)

	// La segunda verificación usa la clave en cache.
	_, err = v.Verify(context.Background(), f.sign(t, googleClaims("tenant-b")))
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.jwksHits.Load())
}

func TestGoogleVerifier_Rejects(t *testing.T) {
	f := newFakeGoogle(t)
	v := f.verifier()
	ctx := context.Background()

	t.Run("expired", func(t *testing.T) {
		c := googleClaims("a")
		c["exp"] = time.Now().Add(-time.Hour).Unix()
		_, err := v.Verify(ctx, f.sign(t, c))
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("expired within leeway", func(t *testing.T) {
		c := googleClaims("a")
		c["exp"] = time.Now().Add(-5 * time.Second).Unix()
		_, err := v.Verify(ctx, f.sign(t, c))
		assert.NoError(t, err)
	})

	t.Run("bad issuer", func(t *testing.T) {
		c := googleClaims("a")
		c["iss"] = "https://evil.example"
		_, err := v.Verify(ctx, f.sign(t, c))
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, googleClaims("a"))
		tk.Header["kid"] = f.kid
		s, err := tk.SignedString(other)
		require.NoError(t, err)
		_, err = v.Verify(ctx, s)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("hs256 not accepted", func(t *testing.T) {
		tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, googleClaims("a"))
		tk.Header["kid"] = f.kid
		s, err := tk.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = v.Verify(ctx, s)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("unknown kid", func(t *testing.T) {
		tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, googleClaims("a"))
		tk.Header["kid"] = "nope"
		s, err := tk.SignedString(f.key)
		require.NoError(t, err)
		_, err = v.Verify(ctx, s)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify(ctx, "not.a.jwt")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestGoogleVerifier_NotModifiedKeepsKeys(t *testing.T) {
	f := newFakeGoogle(t)
	f.notModify = true
	v := f.verifier()
	ctx := context.Background()

	_, err := v.Verify(ctx, f.sign(t, googleClaims("a")))
	require.NoError(t, err)

	// Vaciar la cache y forzar un refresh fuera de la ventana mínima.
	v.keys.Flush()
	v.mu.Lock()
	v.lastRefresh = time.Now().Add(-time.Hour)
	v.mu.Unlock()

	_, err = v.Verify(ctx, f.sign(t, googleClaims("a")))
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.jwksHits.Load())
}

func TestStaticVerifier_HS256(t *testing.T) {
	v, err := NewStaticVerifier(StaticConfig{Algorithm: "HS256", Secret: "s3cret", Issuer: "backend", VerifyExpiration: true})
	require.NoError(t, err)

	sign := func(c jwtv5.MapClaims) string {
		s, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, c).SignedString([]byte("s3cret"))
		require.NoError(t, err)
		return s
	}
	ok := jwtv5.MapClaims{"iss": "backend", "aud": "client", "exp": time.Now().Add(time.Minute).Unix()}

	c, err := v.Verify(context.Background(), sign(ok))
	require.NoError(t, err)
	assert.Equal(t, []string{"client"}, c.Audience)

	bad := jwtv5.MapClaims{"iss": "other", "aud": "client", "exp": time.Now().Add(time.Minute).Unix()}
	_, err = v.Verify(context.Background(), sign(bad))
	assert.ErrorIs(t, err, ErrTokenInvalid)

	noExp := jwtv5.MapClaims{"iss": "backend", "aud": "client"}
	_, err = v.Verify(context.Background(), sign(noExp))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestStaticVerifier_SkipExpiration(t *testing.T) {
	v, err := NewStaticVerifier(StaticConfig{Secret: "k", Issuer: "backend"})
	require.NoError(t, err)

	s, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"iss": "backend", "aud": "client", "exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), s)
	assert.NoError(t, err)

	s, err = jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{"iss": "x", "aud": "client"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), s)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestNewStaticVerifier_Config(t *testing.T) {
	_, err := NewStaticVerifier(StaticConfig{Algorithm: "HS256"})
	assert.Error(t, err)
	_, err = NewStaticVerifier(StaticConfig{Algorithm: "RS256", PublicKeyPEM: "nope"})
	assert.Error(t, err)
	_, err = NewStaticVerifier(StaticConfig{Algorithm: "ES256", Secret: "x"})
	assert.Error(t, err)
}
