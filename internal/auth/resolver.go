package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// ResolverConfig configura de dónde se lee el token y cómo se elige la audiencia.
type ResolverConfig struct {
	// MultiTenant apagado: toda request usa FixedAudience sin verificar token.
	MultiTenant   bool
	FixedAudience string

	HeaderName string
	CookieName string
	// Prefix es el esquema esperado antes del token ("Bearer").
	Prefix string

	// AllowedAudiences restringe las audiencias aceptadas; vacío acepta todas.
	AllowedAudiences []string
}

// Resolution es el resultado de resolver un request.
type Resolution struct {
	Audience string
	// Claims es nil en modo single-tenant.
	Claims *Claims
}

// Resolver obtiene la audiencia de un request.
type Resolver struct {
	cfg      ResolverConfig
	verifier Verifier
	allowed  map[string]struct{}
}

// NewResolver crea un Resolver. En modo multi-tenant el verifier es obligatorio.
func NewResolver(cfg ResolverConfig, v Verifier) (*Resolver, error) {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-IDToken"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "Bearer"
	}
	if cfg.MultiTenant && v == nil {
		return nil, errors.New("auth: multi-tenant resolver requires a verifier")
	}
	if !cfg.MultiTenant && strings.TrimSpace(cfg.FixedAudience) == "" {
		return nil, errors.New("auth: single-tenant resolver requires a fixed audience")
	}

	r := &Resolver{cfg: cfg, verifier: v}
	if len(cfg.AllowedAudiences) > 0 {
		r.allowed = make(map[string]struct{}, len(cfg.AllowedAudiences))
		for _, a := range cfg.AllowedAudiences {
			if a = strings.TrimSpace(a); a != "" {
				r.allowed[a] = struct{}{}
			}
		}
	}
	return r, nil
}

// MultiTenant indica si el resolver verifica tokens.
func (r *Resolver) MultiTenant() bool { return r.cfg.MultiTenant }

// Challenge es el valor para WWW-Authenticate en respuestas 401.
func (r *Resolver) Challenge() string { return r.cfg.Prefix }

// Resolve verifica el token del request y devuelve la audiencia.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) (Resolution, error) {
	if !r.cfg.MultiTenant {
		return Resolution{Audience: r.cfg.FixedAudience}, nil
	}

	raw := r.Token(req)
	if raw == "" {
		return Resolution{}, ErrTokenMissing
	}
	claims, err := r.verifier.Verify(ctx, raw)
	if err != nil {
		if IsAuthError(err) {
			return Resolution{}, err
		}
		return Resolution{}, errors.Join(ErrTokenInvalid, err)
	}

	aud, err := r.audienceOf(claims)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Audience: aud, Claims: claims}, nil
}

// Token extrae el token: header configurado, cookie y por último Authorization.
func (r *Resolver) Token(req *http.Request) string {
	if tok := r.bearer(req.Header.Get(r.cfg.HeaderName)); tok != "" {
		return tok
	}
	if r.cfg.CookieName != "" {
		if c, err := req.Cookie(r.cfg.CookieName); err == nil {
			v := c.Value
			if u, err := url.QueryUnescape(v); err == nil {
				v = u
			}
			if tok := r.bearer(v); tok != "" {
				return tok
			}
		}
	}
	if !strings.EqualFold(r.cfg.HeaderName, "Authorization") {
		return r.bearer(req.Header.Get("Authorization"))
	}
	return ""
}

func (r *Resolver) bearer(v string) string {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(v), " ")
	if !ok || !strings.EqualFold(scheme, r.cfg.Prefix) {
		return ""
	}
	return strings.TrimSpace(tok)
}

// audienceOf exige exactamente una audiencia no vacía.
func (r *Resolver) audienceOf(c *Claims) (string, error) {
	var auds []string
	for _, a := range c.Audience {
		if a = strings.TrimSpace(a); a != "" {
			auds = append(auds, a)
		}
	}
	switch len(auds) {
	case 0:
		return "", ErrAudienceMissing
	case 1:
	default:
		return "", ErrAudienceNotAllowed
	}
	if r.allowed != nil {
		if _, ok := r.allowed[auds[0]]; !ok {
			return "", ErrAudienceNotAllowed
		}
	}
	return auds[0], nil
}
