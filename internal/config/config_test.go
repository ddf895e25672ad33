package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("MULTI_TENANCY_DB", "false")
	t.Setenv("DATABASE_NAME", "acme")
	t.Setenv("DATABASE_DRIVER", " SQLite ")
	t.Setenv("API_PREFIX", "api/v2/")
	t.Setenv("BACKEND_CORS_ORIGINS", `["http://a.test", "http://b.test"]`)
	t.Setenv("RATE_WINDOW", "30")
	t.Setenv("PAGINATION_MAX_SIZE", "10")
	t.Setenv("RATE_TRUST_PROXY", "true")

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", c.Database.Driver)
	assert.False(t, c.Database.MultiTenancy)
	assert.Equal(t, "acme", c.FixedAudience())
	assert.Equal(t, "/api/v2", c.Server.APIPrefix)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.Server.CORSAllowedOrigins)
	assert.Equal(t, 30*time.Second, c.Rate.Window)
	assert.True(t, c.Rate.TrustProxy)
	assert.Equal(t, 10, c.Pagination.PageSize)
	assert.Equal(t, 100, c.Pagination.MaxLimit)
	assert.Equal(t, ":8000", c.Server.Addr)
	assert.Equal(t, "X-IDToken", c.JWT.HeaderName)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  api_prefix: "/"
database:
  driver: mysql
  name_prefix: org_
jwt:
  provider: static
  algorithm: hs256
  secret_key: from-yaml
pagination:
  page_size: 50
  max_limit: 20
`), 0o600))
	t.Setenv("JWT_SECRET_KEY", "from-env")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, "", c.Server.APIPrefix)
	assert.Equal(t, "mysql", c.Database.Driver)
	assert.Equal(t, "org_", c.Database.NamePrefix)
	assert.Equal(t, "HS256", c.JWT.Algorithm)
	assert.Equal(t, "from-env", c.JWT.SecretKey)
	// max_limit nunca queda por debajo del page size
	assert.Equal(t, 50, c.Pagination.MaxLimit)
	// lo no mencionado conserva el default
	assert.Equal(t, 15, c.Database.MaxOpenConns)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad driver", func(c *Config) { c.Database.Driver = "oracle" }, "DATABASE_DRIVER"},
		{"single tenant without name", func(c *Config) {
			c.Database.MultiTenancy = false
			c.JWT.Audience = ""
		}, "DATABASE_NAME"},
		{"single tenant uses jwt audience", func(c *Config) { c.Database.MultiTenancy = false }, ""},
		{"static hs without secret", func(c *Config) { c.JWT.Provider = "static" }, "JWT_SECRET_KEY"},
		{"static rs without key", func(c *Config) {
			c.JWT.Provider = "static"
			c.JWT.Algorithm = "RS256"
		}, "JWT_PUBLIC_KEY"},
		{"unknown provider", func(c *Config) { c.JWT.Provider = "okta" }, "JWT_PROVIDER"},
		{"provider ignored in single tenant", func(c *Config) {
			c.Database.MultiTenancy = false
			c.JWT.Provider = "okta"
		}, ""},
		{"rate without window", func(c *Config) {
			c.Rate.Enabled = true
			c.Rate.Window = 0
		}, "RATE_WINDOW"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetEnvCSV(t *testing.T) {
	t.Setenv("X_LIST", `[ "a" , 'b',, c ]`)
	v, ok := getEnvCSV("X_LIST")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, v)

	t.Setenv("X_LIST", "[]")
	v, ok = getEnvCSV("X_LIST")
	require.True(t, ok)
	assert.Empty(t, v)
}
