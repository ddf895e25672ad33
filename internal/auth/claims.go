package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Verifier valida un token crudo y devuelve sus claims.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Claims, error)
}

// VerifierFunc adapta una función a Verifier.
type VerifierFunc func(ctx context.Context, raw string) (*Claims, error)

// Verify implementa Verifier.
func (f VerifierFunc) Verify(ctx context.Context, raw string) (*Claims, error) { return f(ctx, raw) }

// Claims son los datos del token que usa el servicio.
type Claims struct {
	Subject   string
	Issuer    string
	Audience  []string
	Email     string
	ExpiresAt time.Time
	Raw       jwtv5.MapClaims
}

func claimsFrom(m jwtv5.MapClaims) *Claims {
	c := &Claims{Raw: m}
	c.Subject, _ = m.GetSubject()
	c.Issuer, _ = m.GetIssuer()
	if aud, err := m.GetAudience(); err == nil {
		c.Audience = []string(aud)
	}
	if exp, err := m.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if s, ok := m["email"].(string); ok {
		c.Email = s
	}
	return c
}

// mapParseError traduce errores de golang-jwt a los errores del paquete.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}
