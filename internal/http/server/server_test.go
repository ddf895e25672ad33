package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/orgcrud/internal/config"
	"github.com/dropDatabas3/orgcrud/internal/http/server"
)

const secret = "test-secret"

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.SQLiteDir = t.TempDir()
	cfg.Database.AutoCreate = true
	cfg.Database.MultiTenancy = false
	cfg.Database.Name = "acme"
	cfg.Metrics.Enabled = false
	require.NoError(t, cfg.Validate())
	return cfg
}

func newServer(t *testing.T, cfg *config.Config, opts server.Options) http.Handler {
	t.Helper()
	srv, err := server.New(cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv.Handler()
}

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c *client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("X-IDToken", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func dataID(t *testing.T, body map[string]any) int64 {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data: %v", body)
	return int64(data["id"].(float64))
}

func firstFieldMsg(t *testing.T, body map[string]any) string {
	t.Helper()
	fields, ok := body["fields"].([]any)
	require.True(t, ok, "missing fields: %v", body)
	require.NotEmpty(t, fields)
	return fields[0].(map[string]any)["msg"].(string)
}

func TestSchoolLifecycle(t *testing.T) {
	c := &client{t: t, h: newServer(t, sqliteConfig(t), server.Options{Version: "test"})}

	code, body := c.do(http.MethodPost, "/api/v1/school/create/", map[string]any{"name": "X"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "School created", body["message"])
	schoolID := dataID(t, body)

	code, body = c.do(http.MethodPost, "/api/v1/school/create/", map[string]any{"name": "X"})
	require.Equal(t, http.StatusUnprocessableEntity, code, body)
	assert.Equal(t, "School with this name already exists", firstFieldMsg(t, body))

	code, body = c.do(http.MethodPost, "/api/v1/user/create/", map[string]any{"name": "ana", "date_of_birth": "1990-04-12"})
	require.Equal(t, http.StatusCreated, code, body)
	userID := dataID(t, body)

	code, body = c.do(http.MethodPost, "/api/v1/user-to-school/create/", map[string]any{"user_id": userID, "school_id": schoolID})
	require.Equal(t, http.StatusCreated, code, body)
	linkID := dataID(t, body)

	code, body = c.do(http.MethodGet, fmt.Sprintf("/api/v1/school/%d/delete/", schoolID), nil)
	require.Equal(t, http.StatusBadRequest, code, body)
	assert.Equal(t, "Can't delete school", body["message"])

	code, _ = c.do(http.MethodGet, fmt.Sprintf("/api/v1/user-to-school/%d/delete/", linkID), nil)
	require.Equal(t, http.StatusOK, code)

	code, body = c.do(http.MethodGet, fmt.Sprintf("/api/v1/school/%d/delete/", schoolID), nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "School deleted", body["message"])

	code, _ = c.do(http.MethodGet, fmt.Sprintf("/api/v1/school/%d/detail/", schoolID), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUpdateAndList(t *testing.T) {
	c := &client{t: t, h: newServer(t, sqliteConfig(t), server.Options{})}

	for i := 0; i < 3; i++ {
		code, body := c.do(http.MethodPost, "/api/v1/group/create/", map[string]any{"name": fmt.Sprintf("g%d", i)})
		require.Equal(t, http.StatusCreated, code, body)
	}

	code, body := c.do(http.MethodGet, "/api/v1/group/?limit=2&page=1", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 3, body["count"])
	assert.EqualValues(t, 2, body["limit"])
	assert.EqualValues(t, 1, body["page"])
	rows := body["rows"].([]any)
	require.Len(t, rows, 2)
	// más nuevo primero
	assert.Equal(t, "g2", rows[0].(map[string]any)["name"])

	id := int64(rows[0].(map[string]any)["id"].(float64))
	code, body = c.do(http.MethodPatch, fmt.Sprintf("/api/v1/group/%d/update/", id), map[string]any{"name": "renamed"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Group updated", body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "renamed", data["name"])
	assert.NotNil(t, data["modified_at"])

	code, body = c.do(http.MethodPatch, fmt.Sprintf("/api/v1/group/%d/update/", id), map[string]any{"name": "g0"})
	assert.Equal(t, http.StatusUnprocessableEntity, code, body)

	code, _ = c.do(http.MethodGet, "/api/v1/group/abc/detail/", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = c.do(http.MethodGet, "/api/v1/nope/", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealthEndpoints(t *testing.T) {
	c := &client{t: t, h: newServer(t, sqliteConfig(t), server.Options{Version: "1.2.3"})}

	code, body := c.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.2.3", body["version"])

	code, body = c.do(http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "ready", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Metrics.Enabled = true
	h := newServer(t, cfg, server.Options{Registry: prometheus.NewRegistry()})
	c := &client{t: t, h: h}

	code, _ := c.do(http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenant_pool_count 1")
	assert.Contains(t, rec.Body.String(), `tenant_migrations_total{database="acme",result="applied"} 1`)
}

func TestRateLimit_InMemory(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Rate.Enabled = true
	cfg.Rate.MaxRequests = 2
	cfg.Rate.Window = time.Minute
	c := &client{t: t, h: newServer(t, cfg, server.Options{})}

	for i := 0; i < 2; i++ {
		code, _ := c.do(http.MethodGet, "/api/v1/user/", nil)
		require.Equal(t, http.StatusOK, code)
	}
	// cambiar X-Forwarded-For no resetea la cuota
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.99")
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// los endpoints operativos no se limitan
	code, _ := c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
}

func signed(t *testing.T, claims jwtv5.MapClaims) string {
	t.Helper()
	tok, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestMultiTenantIsolation(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.SQLiteDir = t.TempDir()
	cfg.Database.AutoCreate = true
	cfg.Database.NamePrefix = "org_"
	cfg.JWT.Provider = "static"
	cfg.JWT.SecretKey = secret
	cfg.Metrics.Enabled = false
	require.NoError(t, cfg.Validate())
	h := newServer(t, cfg, server.Options{})

	token := func(aud string) string {
		return signed(t, jwtv5.MapClaims{
			"aud": aud,
			"iss": cfg.JWT.Issuer,
			"sub": "u-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
	}
	acme := &client{t: t, h: h, token: token("acme")}
	globex := &client{t: t, h: h, token: token("globex")}

	code, body := acme.do(http.MethodPost, "/api/v1/school/create/", map[string]any{"name": "Shared"})
	require.Equal(t, http.StatusCreated, code, body)
	// mismo nombre en otro tenant no choca
	code, body = globex.do(http.MethodPost, "/api/v1/school/create/", map[string]any{"name": "Shared"})
	require.Equal(t, http.StatusCreated, code, body)
	code, body = globex.do(http.MethodPost, "/api/v1/school/create/", map[string]any{"name": "Only globex"})
	require.Equal(t, http.StatusCreated, code, body)

	_, body = acme.do(http.MethodGet, "/api/v1/school/", nil)
	assert.EqualValues(t, 1, body["count"])
	_, body = globex.do(http.MethodGet, "/api/v1/school/", nil)
	assert.EqualValues(t, 2, body["count"])

	for _, name := range []string{"org_acme.db", "org_globex.db"} {
		_, err := os.Stat(filepath.Join(cfg.Database.SQLiteDir, name))
		assert.NoError(t, err, name)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/school/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("WWW-Authenticate"), "Bearer"))
}

func TestManagerConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "mariadb"
	cfg.Database.Port = 3307
	cfg.Database.NamePrefix = "org_"
	cfg.Database.MaxOpenConns = 7

	mc, err := server.ManagerConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "mysql", string(mc.Dialect))
	assert.Equal(t, 3307, mc.Conn.Port)
	assert.Equal(t, "org_", mc.NamePrefix)
	assert.Equal(t, 7, mc.Pool.MaxOpenConns)

	cfg.Database.Driver = "oracle"
	_, err = server.ManagerConfig(cfg)
	assert.Error(t, err)
}

func TestNewVerifier(t *testing.T) {
	cfg := config.Default()

	v, err := server.NewVerifier(cfg)
	require.NoError(t, err)
	assert.NotNil(t, v, "google por defecto")

	cfg.JWT.Provider = "static"
	cfg.JWT.SecretKey = secret
	v, err = server.NewVerifier(cfg)
	require.NoError(t, err)
	assert.NotNil(t, v)

	cfg.JWT.Algorithm = "RS256"
	_, err = server.NewVerifier(cfg)
	assert.Error(t, err, "RS256 sin clave pública")

	cfg.Database.MultiTenancy = false
	v, err = server.NewVerifier(cfg)
	require.NoError(t, err)
	assert.Nil(t, v)
}
