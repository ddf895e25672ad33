package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// StaticConfig configura la verificación con clave local.
type StaticConfig struct {
	// Algorithm: HS256/HS384/HS512 o RS256/RS384/RS512.
	Algorithm string
	// Secret para HS*.
	Secret string
	// PublicKeyPEM para RS*.
	PublicKeyPEM     string
	Issuer           string
	Leeway           time.Duration
	VerifyExpiration bool
}

// StaticVerifier valida tokens firmados con una clave conocida.
type StaticVerifier struct {
	cfg StaticConfig
	key any
}

// NewStaticVerifier valida la configuración y prepara la clave.
func NewStaticVerifier(cfg StaticConfig) (*StaticVerifier, error) {
	cfg.Algorithm = strings.ToUpper(strings.TrimSpace(cfg.Algorithm))
	if cfg.Algorithm == "" {
		cfg.Algorithm = "HS256"
	}

	var key any
	switch {
	case strings.HasPrefix(cfg.Algorithm, "HS"):
		if cfg.Secret == "" {
			return nil, fmt.Errorf("auth: %s requires a secret key", cfg.Algorithm)
		}
		key = []byte(cfg.Secret)
	case strings.HasPrefix(cfg.Algorithm, "RS"):
		pub, err := jwtv5.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("auth: parse public key: %w", err)
		}
		key = pub
	default:
		return nil, fmt.Errorf("auth: unsupported algorithm %q", cfg.Algorithm)
	}
	if jwtv5.GetSigningMethod(cfg.Algorithm) == nil {
		return nil, fmt.Errorf("auth: unsupported algorithm %q", cfg.Algorithm)
	}
	return &StaticVerifier{cfg: cfg, key: key}, nil
}

// Verify implementa Verifier.
func (s *StaticVerifier) Verify(_ context.Context, raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrTokenMissing
	}

	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{s.cfg.Algorithm}),
		jwtv5.WithLeeway(s.cfg.Leeway),
	}
	if s.cfg.VerifyExpiration {
		opts = append(opts, jwtv5.WithExpirationRequired())
		if s.cfg.Issuer != "" {
			opts = append(opts, jwtv5.WithIssuer(s.cfg.Issuer))
		}
	} else {
		// golang-jwt no permite saltear sólo exp: se desactiva la validación
		// de claims y el issuer se chequea a mano.
		opts = append(opts, jwtv5.WithoutClaimsValidation())
	}

	tok, err := jwtv5.Parse(raw, func(*jwtv5.Token) (any, error) { return s.key, nil }, opts...)
	if err != nil {
		return nil, mapParseError(err)
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok || !tok.Valid {
		return nil, ErrTokenInvalid
	}

	out := claimsFrom(claims)
	if !s.cfg.VerifyExpiration && s.cfg.Issuer != "" && out.Issuer != s.cfg.Issuer {
		return nil, fmt.Errorf("%w: bad iss %q", ErrTokenInvalid, out.Issuer)
	}
	return out, nil
}
