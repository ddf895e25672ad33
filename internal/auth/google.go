package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/orgcrud/internal/observability/logger"
)

// DefaultDiscoveryURL es el documento OIDC de Google.
const DefaultDiscoveryURL = "https://accounts.google.com/.well-known/openid-configuration"

var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

const (
	defaultKeyTTL       = time.Hour
	defaultDiscoveryTTL = 24 * time.Hour
	// minRefresh acota los refrescos del JWKS disparados por kids desconocidos.
	minRefresh = 30 * time.Second
)

type discoveryDoc struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"` // base64url
	E   string `json:"e"` // base64url
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// GoogleConfig configura el verificador de Google ID tokens.
type GoogleConfig struct {
	DiscoveryURL string
	// Issuers aceptados; vacío usa los de Google.
	Issuers    []string
	Leeway     time.Duration
	KeyTTL     time.Duration
	HTTPClient *http.Client
}

// GoogleVerifier valida Google ID tokens (RS256) contra el JWKS publicado.
// Acepta cualquier audiencia: la audiencia elige el tenant, no se compara
// contra un client id.
type GoogleVerifier struct {
	cfg  GoogleConfig
	http *http.Client

	// keys: kid -> *rsa.PublicKey con TTL
	keys *cache.Cache

	mu          sync.Mutex
	disc        *discoveryDoc
	discAt      time.Time
	last        map[string]*rsa.PublicKey
	etag        string
	lastRefresh time.Time
}

// NewGoogleVerifier crea el verificador. No hace requests hasta el primer Verify.
func NewGoogleVerifier(cfg GoogleConfig) *GoogleVerifier {
	if cfg.DiscoveryURL == "" {
		cfg.DiscoveryURL = DefaultDiscoveryURL
	}
	if len(cfg.Issuers) == 0 {
		cfg.Issuers = googleIssuers
	}
	if cfg.KeyTTL <= 0 {
		cfg.KeyTTL = defaultKeyTTL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleVerifier{
		cfg:  cfg,
		http: hc,
		keys: cache.New(cfg.KeyTTL, 2*cfg.KeyTTL),
	}
}

// Verify valida firma, algoritmo, issuer y expiración.
func (g *GoogleVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrTokenMissing
	}

	tok, err := jwtv5.Parse(raw, func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		return g.keyFor(ctx, kid)
	},
		jwtv5.WithValidMethods([]string{"RS256"}),
		jwtv5.WithLeeway(g.cfg.Leeway),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil {
		return nil, mapParseError(err)
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok || !tok.Valid {
		return nil, ErrTokenInvalid
	}

	out := claimsFrom(claims)
	if !containsString(g.cfg.Issuers, out.Issuer) {
		return nil, fmt.Errorf("%w: bad iss %q", ErrTokenInvalid, out.Issuer)
	}
	return out, nil
}

// keyFor busca la clave en cache; si no está refresca el JWKS una vez.
func (g *GoogleVerifier) keyFor(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if v, ok := g.keys.Get(kid); ok {
		return v.(*rsa.PublicKey), nil
	}
	if err := g.refresh(ctx); err != nil {
		return nil, err
	}
	if v, ok := g.keys.Get(kid); ok {
		return v.(*rsa.PublicKey), nil
	}
	return nil, errors.New("kid not found")
}

func (g *GoogleVerifier) refresh(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Un kid desconocido no debe disparar un request por token.
	if g.last != nil && time.Since(g.lastRefresh) < minRefresh {
		g.fillCache(g.last)
		return nil
	}

	disc, err := g.discovery(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, disc.JWKSURI, nil)
	if err != nil {
		return err
	}
	if g.etag != "" && g.last != nil {
		req.Header.Set("If-None-Match", g.etag)
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	g.lastRefresh = time.Now()
	if resp.StatusCode == http.StatusNotModified {
		g.fillCache(g.last)
		return nil
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("jwks http %d", resp.StatusCode)
	}

	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return err
	}
	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if !strings.EqualFold(k.Kty, "RSA") || k.Kid == "" {
			continue
		}
		pub, err := rsaKey(k)
		if err != nil {
			logger.L().Warn("jwks: skipping key", logger.Component("auth"), logger.String("kid", k.Kid), logger.Err(err))
			continue
		}
		keys[k.Kid] = pub
	}
	g.last = keys
	g.etag = resp.Header.Get("ETag")
	g.fillCache(keys)
	return nil
}

func (g *GoogleVerifier) fillCache(keys map[string]*rsa.PublicKey) {
	for kid, pub := range keys {
		g.keys.SetDefault(kid, pub)
	}
}

// discovery se llama con g.mu tomado.
func (g *GoogleVerifier) discovery(ctx context.Context) (*discoveryDoc, error) {
	if g.disc != nil && time.Since(g.discAt) < defaultDiscoveryTTL {
		return g.disc, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.DiscoveryURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("discovery http %d", resp.StatusCode)
	}
	var dd discoveryDoc
	if err := json.NewDecoder(resp.Body).Decode(&dd); err != nil {
		return nil, err
	}
	if dd.JWKSURI == "" {
		return nil, errors.New("discovery: missing jwks_uri")
	}
	g.disc = &dd
	g.discAt = time.Now()
	return &dd, nil
}

func rsaKey(k jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}
	e := 65537
	if len(eb) > 0 {
		e = 0
		for _, b := range eb {
			e = (e << 8) | int(b)
		}
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
