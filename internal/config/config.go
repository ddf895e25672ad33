package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env         string `yaml:"env"`
		LogLevel    string `yaml:"log_level"`
		ServiceName string `yaml:"service_name"`
	} `yaml:"app"`

	Server struct {
		Addr               string        `yaml:"addr"`
		APIPrefix          string        `yaml:"api_prefix"`
		CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"` // vacío => "*"
		ReadTimeout        time.Duration `yaml:"read_timeout"`
		WriteTimeout       time.Duration `yaml:"write_timeout"`
		IdleTimeout        time.Duration `yaml:"idle_timeout"`
		ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
		MaxBodyBytes       int64         `yaml:"max_body_bytes"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // postgres | mysql | sqlite
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		SSLMode  string `yaml:"sslmode"`
		// SQLiteDir directorio de los archivos por tenant (driver sqlite).
		SQLiteDir string `yaml:"sqlite_dir"`

		// MultiTenancy: una base por audiencia del token. Si es false todas las
		// requests usan Name (o JWT.Audience) sin verificar token.
		MultiTenancy bool   `yaml:"multi_tenancy"`
		Name         string `yaml:"name"`
		NamePrefix   string `yaml:"name_prefix"`
		AutoCreate   bool   `yaml:"auto_create"`

		MaxOpenConns    int           `yaml:"max_open_conns"`
		MaxIdleConns    int           `yaml:"max_idle_conns"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	} `yaml:"database"`

	Pagination struct {
		PageSize int `yaml:"page_size"`
		MaxLimit int `yaml:"max_limit"`
	} `yaml:"pagination"`

	JWT struct {
		// google (ID tokens verificados contra JWKS de Google) | static (clave local)
		Provider         string        `yaml:"provider"`
		Algorithm        string        `yaml:"algorithm"` // HS256 | RS256 (provider static)
		SecretKey        string        `yaml:"secret_key"`
		PublicKey        string        `yaml:"public_key"` // PEM
		Issuer           string        `yaml:"issuer"`
		Audience         string        `yaml:"audience"`
		AllowedAudiences []string      `yaml:"allowed_audiences"`
		Leeway           time.Duration `yaml:"leeway"`
		VerifyExpiration bool          `yaml:"verify_expiration"`
		HeaderName       string        `yaml:"header_name"`
		CookieName       string        `yaml:"cookie_name"`
		HeaderPrefix     string        `yaml:"header_prefix"`
		DiscoveryURL     string        `yaml:"discovery_url"`
	} `yaml:"jwt"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		MaxRequests int           `yaml:"max_requests"`
		Window      time.Duration `yaml:"window"`
		// TrustProxy toma la clave de X-Forwarded-For en vez de RemoteAddr.
		TrustProxy bool `yaml:"trust_proxy"`
	} `yaml:"rate"`

	// Redis respalda el rate limiter entre réplicas; sin Addr se limita en memoria.
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// Default devuelve la configuración con valores por defecto.
func Default() *Config {
	var c Config
	c.App.Env = "dev"
	c.App.LogLevel = "info"
	c.App.ServiceName = "orgcrud"

	c.Server.Addr = ":8000"
	c.Server.APIPrefix = "/api/v1"
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.ShutdownTimeout = 15 * time.Second
	c.Server.MaxBodyBytes = 1 << 20

	c.Database.Driver = "postgres"
	c.Database.Host = "localhost"
	c.Database.User = "postgres"
	c.Database.SSLMode = "disable"
	c.Database.SQLiteDir = "./data"
	c.Database.MultiTenancy = true
	c.Database.MaxOpenConns = 15
	c.Database.MaxIdleConns = 3
	c.Database.ConnMaxLifetime = 30 * time.Minute

	c.Pagination.PageSize = 25
	c.Pagination.MaxLimit = 100

	c.JWT.Provider = "google"
	c.JWT.Algorithm = "HS256"
	c.JWT.Issuer = "backend"
	c.JWT.Audience = "client"
	c.JWT.Leeway = 30 * time.Second
	c.JWT.VerifyExpiration = true
	c.JWT.HeaderName = "X-IDToken"
	c.JWT.CookieName = "X-IDToken"
	c.JWT.HeaderPrefix = "Bearer"

	c.Rate.MaxRequests = 120
	c.Rate.Window = time.Minute
	c.Redis.Prefix = "orgcrud:rl:"

	c.Metrics.Enabled = true
	c.Metrics.Path = "/metrics"
	return &c
}

// Load lee el YAML (si path no está vacío), aplica overrides por env y valida.
// Sin archivo la configuración sale sólo de defaults + entorno.
func Load(path string) (*Config, error) {
	c := Default()

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		// Los campos ausentes en el YAML conservan el default.
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.normalize()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) normalize() {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.JWT.Provider = strings.ToLower(strings.TrimSpace(c.JWT.Provider))
	c.JWT.Algorithm = strings.ToUpper(strings.TrimSpace(c.JWT.Algorithm))

	p := "/" + strings.Trim(strings.TrimSpace(c.Server.APIPrefix), "/")
	if p == "/" {
		p = ""
	}
	c.Server.APIPrefix = p

	if c.Pagination.PageSize <= 0 {
		c.Pagination.PageSize = 25
	}
	if c.Pagination.MaxLimit < c.Pagination.PageSize {
		c.Pagination.MaxLimit = c.Pagination.PageSize
	}
}

// FixedAudience es la audiencia usada cuando la multi-tenencia está apagada.
func (c *Config) FixedAudience() string {
	if v := strings.TrimSpace(c.Database.Name); v != "" {
		return v
	}
	return strings.TrimSpace(c.JWT.Audience)
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvInt64(key string) (int64, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// getEnvDur acepta duraciones Go ("30s") o segundos enteros ("30").
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		s = strings.TrimSpace(s)
		if d, err := time.ParseDuration(s); err == nil {
			return d, true
		}
		if n, err := strconv.Atoi(s); err == nil {
			return time.Duration(n) * time.Second, true
		}
	}
	return 0, false
}

// getEnvCSV acepta "a,b" o la forma JSON-ish "[a, b]".
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		s = strings.TrimSpace(s)
		s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.Trim(strings.TrimSpace(p), `"'`)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = v
	}
	if v, ok := getEnvStr("SERVICE_NAME"); ok {
		c.App.ServiceName = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("API_PREFIX"); ok {
		c.Server.APIPrefix = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	} else if v, ok := getEnvCSV("BACKEND_CORS_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvDur("SERVER_READ_TIMEOUT"); ok {
		c.Server.ReadTimeout = v
	}
	if v, ok := getEnvDur("SERVER_WRITE_TIMEOUT"); ok {
		c.Server.WriteTimeout = v
	}
	if v, ok := getEnvDur("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}
	if v, ok := getEnvInt64("SERVER_MAX_BODY_BYTES"); ok {
		c.Server.MaxBodyBytes = v
	}

	// DATABASE
	if v, ok := getEnvStr("DATABASE_DRIVER"); ok {
		c.Database.Driver = v
	}
	if v, ok := getEnvStr("DATABASE_HOST"); ok {
		c.Database.Host = v
	}
	if v, ok := getEnvInt("DATABASE_PORT"); ok {
		c.Database.Port = v
	}
	if v, ok := getEnvStr("DATABASE_USER"); ok {
		c.Database.User = v
	}
	if v, ok := getEnvStr("DATABASE_PASSWORD"); ok {
		c.Database.Password = v
	}
	if v, ok := getEnvStr("DATABASE_SSLMODE"); ok {
		c.Database.SSLMode = v
	}
	if v, ok := getEnvStr("DATABASE_SQLITE_DIR"); ok {
		c.Database.SQLiteDir = v
	}
	if v, ok := getEnvBool("MULTI_TENANCY_DB"); ok {
		c.Database.MultiTenancy = v
	}
	if v, ok := getEnvStr("DATABASE_NAME"); ok {
		c.Database.Name = v
	}
	if v, ok := getEnvStr("DATABASE_NAME_PREFIX"); ok {
		c.Database.NamePrefix = v
	}
	if v, ok := getEnvBool("DATABASE_AUTO_CREATE"); ok {
		c.Database.AutoCreate = v
	}
	if v, ok := getEnvInt("DATABASE_MAX_OPEN_CONNS"); ok {
		c.Database.MaxOpenConns = v
	}
	if v, ok := getEnvInt("DATABASE_MAX_IDLE_CONNS"); ok {
		c.Database.MaxIdleConns = v
	}
	if v, ok := getEnvDur("DATABASE_CONN_MAX_LIFETIME"); ok {
		c.Database.ConnMaxLifetime = v
	}

	// PAGINATION
	if v, ok := getEnvInt("PAGINATION_PAGE_SIZE"); ok {
		c.Pagination.PageSize = v
	} else if v, ok := getEnvInt("PAGINATION_MAX_SIZE"); ok {
		c.Pagination.PageSize = v
	}
	if v, ok := getEnvInt("PAGINATION_MAX_LIMIT"); ok {
		c.Pagination.MaxLimit = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_PROVIDER"); ok {
		c.JWT.Provider = v
	}
	if v, ok := getEnvStr("JWT_ALGORITHM"); ok {
		c.JWT.Algorithm = v
	}
	if v, ok := getEnvStr("JWT_SECRET_KEY"); ok {
		c.JWT.SecretKey = v
	}
	if v, ok := getEnvStr("JWT_PUBLIC_KEY"); ok {
		c.JWT.PublicKey = v
	}
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_AUDIENCE"); ok {
		c.JWT.Audience = v
	}
	if v, ok := getEnvCSV("JWT_ALLOWED_AUDIENCES"); ok {
		c.JWT.AllowedAudiences = v
	}
	if v, ok := getEnvDur("JWT_LEEWAY"); ok {
		c.JWT.Leeway = v
	}
	if v, ok := getEnvBool("JWT_VERIFY_EXPIRATION"); ok {
		c.JWT.VerifyExpiration = v
	}
	if v, ok := getEnvStr("JWT_AUTH_HEADER_NAME"); ok {
		c.JWT.HeaderName = v
	}
	if v, ok := getEnvStr("JWT_AUTH_COOKIE_NAME"); ok {
		c.JWT.CookieName = v
	}
	if v, ok := getEnvStr("JWT_AUTH_HEADER_PREFIX"); ok {
		c.JWT.HeaderPrefix = v
	}
	if v, ok := getEnvStr("JWT_DISCOVERY_URL"); ok {
		c.JWT.DiscoveryURL = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvBool("RATE_TRUST_PROXY"); ok {
		c.Rate.TrustProxy = v
	}

	// REDIS
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Redis.Prefix = v
	}

	// METRICS
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
	if v, ok := getEnvStr("METRICS_PATH"); ok {
		c.Metrics.Path = v
	}
}

// Validate performs validation of critical configuration values.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "postgres", "postgresql", "pg", "mysql", "mariadb", "sqlite", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER %q not supported", c.Database.Driver))
	}

	if !c.Database.MultiTenancy && c.FixedAudience() == "" {
		errs = append(errs, errors.New("DATABASE_NAME is required when MULTI_TENANCY_DB is false"))
	}

	if c.Database.MultiTenancy {
		switch c.JWT.Provider {
		case "google":
		case "static":
			switch c.JWT.Algorithm {
			case "HS256", "HS384", "HS512":
				if strings.TrimSpace(c.JWT.SecretKey) == "" {
					errs = append(errs, errors.New("JWT_SECRET_KEY is required for HMAC algorithms"))
				}
			case "RS256", "RS384", "RS512":
				if strings.TrimSpace(c.JWT.PublicKey) == "" {
					errs = append(errs, errors.New("JWT_PUBLIC_KEY is required for RSA algorithms"))
				}
			default:
				errs = append(errs, fmt.Errorf("JWT_ALGORITHM %q not supported", c.JWT.Algorithm))
			}
		default:
			errs = append(errs, fmt.Errorf("JWT_PROVIDER %q not supported", c.JWT.Provider))
		}
	}

	if c.Rate.Enabled {
		if c.Rate.MaxRequests <= 0 || c.Rate.Window <= 0 {
			errs = append(errs, errors.New("RATE_MAX_REQUESTS and RATE_WINDOW must be positive"))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
