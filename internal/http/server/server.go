// Package server hace el wiring de config, pools por tenant, verificación de
// tokens, rate limiting y métricas, y corre el http.Server con apagado ordenado.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/orgcrud/internal/auth"
	"github.com/dropDatabas3/orgcrud/internal/config"
	"github.com/dropDatabas3/orgcrud/internal/http/controllers"
	"github.com/dropDatabas3/orgcrud/internal/http/helpers"
	mw "github.com/dropDatabas3/orgcrud/internal/http/middlewares"
	"github.com/dropDatabas3/orgcrud/internal/http/router"
	"github.com/dropDatabas3/orgcrud/internal/http/services"
	"github.com/dropDatabas3/orgcrud/internal/infra/tenantsql"
	"github.com/dropDatabas3/orgcrud/internal/metrics"
	"github.com/dropDatabas3/orgcrud/internal/observability/logger"
	"github.com/dropDatabas3/orgcrud/internal/rate"
	"github.com/dropDatabas3/orgcrud/internal/store"
)

// Options permite inyectar dependencias en tests.
type Options struct {
	Version string
	// Verifier reemplaza al construido desde la config.
	Verifier auth.Verifier
	// Registry para métricas; nil usa el registry global.
	Registry *prometheus.Registry
}

// Server agrupa el handler y los recursos que hay que cerrar al apagar.
type Server struct {
	cfg     *config.Config
	manager *tenantsql.Manager
	redis   *rdb.Client
	handler http.Handler
}

// ManagerConfig traduce la config a la del registro de pools por tenant.
func ManagerConfig(cfg *config.Config) (tenantsql.Config, error) {
	dialect, err := store.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return tenantsql.Config{}, err
	}
	return tenantsql.Config{
		Dialect: dialect,
		Conn: store.ConnParams{
			Host:      cfg.Database.Host,
			Port:      cfg.Database.Port,
			User:      cfg.Database.User,
			Password:  cfg.Database.Password,
			SSLMode:   cfg.Database.SSLMode,
			SQLiteDir: cfg.Database.SQLiteDir,
		},
		NamePrefix: cfg.Database.NamePrefix,
		AutoCreate: cfg.Database.AutoCreate,
		Pool: store.PoolOptions{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		},
	}, nil
}

// NewVerifier construye el verificador de tokens según JWT_PROVIDER.
// En single-tenant devuelve nil.
func NewVerifier(cfg *config.Config) (auth.Verifier, error) {
	if !cfg.Database.MultiTenancy {
		return nil, nil
	}
	switch cfg.JWT.Provider {
	case "static":
		return auth.NewStaticVerifier(auth.StaticConfig{
			Algorithm:        cfg.JWT.Algorithm,
			Secret:           cfg.JWT.SecretKey,
			PublicKeyPEM:     cfg.JWT.PublicKey,
			Issuer:           cfg.JWT.Issuer,
			Leeway:           cfg.JWT.Leeway,
			VerifyExpiration: cfg.JWT.VerifyExpiration,
		})
	default:
		return auth.NewGoogleVerifier(auth.GoogleConfig{
			DiscoveryURL: cfg.JWT.DiscoveryURL,
			Leeway:       cfg.JWT.Leeway,
		}), nil
	}
}

// New arma el servidor completo a partir de la config.
func New(cfg *config.Config, opts Options) (*Server, error) {
	log := logger.L().With(logger.Component("server"))
	s := &Server{cfg: cfg}

	mcfg, err := ManagerConfig(cfg)
	if err != nil {
		return nil, err
	}

	// Métricas antes del manager: el callback de migraciones escribe en ellas.
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		mcfg.MetricsFunc = metrics.RecordTenantMigration
	}

	manager, err := tenantsql.New(mcfg)
	if err != nil {
		return nil, err
	}
	s.manager = manager

	if cfg.Metrics.Enabled {
		mc := metrics.Config{Pools: manager}
		if opts.Registry != nil {
			mc.Registry, mc.Gatherer = opts.Registry, opts.Registry
		}
		metricsHandler, err = metrics.Register(mc)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("server: metrics: %w", err)
		}
	}

	verifier := opts.Verifier
	if verifier == nil {
		if verifier, err = NewVerifier(cfg); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	resolver, err := auth.NewResolver(auth.ResolverConfig{
		MultiTenant:      cfg.Database.MultiTenancy,
		FixedAudience:    cfg.FixedAudience(),
		HeaderName:       cfg.JWT.HeaderName,
		CookieName:       cfg.JWT.CookieName,
		Prefix:           cfg.JWT.HeaderPrefix,
		AllowedAudiences: cfg.JWT.AllowedAudiences,
	}, verifier)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	var rateMW mw.Middleware
	if cfg.Rate.Enabled {
		keyFn := mw.IPRateKey
		if cfg.Rate.TrustProxy {
			keyFn = mw.ForwardedRateKey
		}
		rateMW = mw.WithRateLimit(mw.RateLimitConfig{Limiter: s.limiter(), KeyFunc: keyFn})
	}

	var probe func(ctx context.Context) error
	if !cfg.Database.MultiTenancy {
		aud := cfg.FixedAudience()
		probe = func(ctx context.Context) error {
			db, err := manager.Get(ctx, aud)
			if err != nil {
				return err
			}
			return db.Ping(ctx)
		}
	}

	ctrls := controllers.New(services.NewServices(), controllers.Options{
		Pagination: helpers.Pagination{
			PageSize: cfg.Pagination.PageSize,
			MaxLimit: cfg.Pagination.MaxLimit,
		},
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})

	s.handler = router.New(router.Deps{
		Controllers: ctrls,
		Health:      controllers.NewHealthController(opts.Version, manager, probe),
		APIPrefix:   cfg.Server.APIPrefix,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		TokenHeader: cfg.JWT.HeaderName,
		Tenant:      mw.WithTenant(mw.TenantConfig{Resolver: resolver, Pools: manager}),
		RateLimit:   rateMW,
		Metrics:     metricsHandler,
		MetricsPath: cfg.Metrics.Path,
	})

	log.Info("server wired",
		logger.String("driver", string(mcfg.Dialect)),
		logger.Bool("multi_tenancy", cfg.Database.MultiTenancy),
		logger.String("jwt_provider", cfg.JWT.Provider),
		logger.Bool("rate_limit", cfg.Rate.Enabled),
		logger.Bool("metrics", cfg.Metrics.Enabled),
	)
	return s, nil
}

func (s *Server) limiter() rate.Limiter {
	if s.cfg.Redis.Addr == "" {
		return rate.NewMemoryLimiter(s.cfg.Rate.MaxRequests, s.cfg.Rate.Window)
	}
	s.redis = rdb.NewClient(&rdb.Options{
		Addr:     s.cfg.Redis.Addr,
		Password: s.cfg.Redis.Password,
		DB:       s.cfg.Redis.DB,
	})
	return rate.NewRedisLimiter(s.redis, s.cfg.Redis.Prefix, s.cfg.Rate.MaxRequests, s.cfg.Rate.Window)
}

// Handler devuelve el handler HTTP.
func (s *Server) Handler() http.Handler { return s.handler }

// Manager devuelve el registro de pools.
func (s *Server) Manager() *tenantsql.Manager { return s.manager }

// Run escucha hasta que ctx se cancela y luego apaga de forma ordenada:
// deja de aceptar conexiones, espera los requests en curso y cierra los pools.
func (s *Server) Run(ctx context.Context) error {
	log := logger.L().With(logger.Component("server"))
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.handler,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logger.String("addr", srv.Addr), logger.String("api_prefix", s.cfg.Server.APIPrefix))
		errCh <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			runErr = fmt.Errorf("server: shutdown: %w", err)
		}
	}

	if err := s.Close(); err != nil {
		log.Warn("close failed", logger.Err(err))
	}
	return runErr
}

// Close libera los pools y el cliente de Redis.
func (s *Server) Close() error {
	var errs []error
	if s.manager != nil {
		errs = append(errs, s.manager.Close())
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
		s.redis = nil
	}
	return stderrors.Join(errs...)
}
