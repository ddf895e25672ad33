package middlewares

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/dropDatabas3/orgcrud/internal/auth"
	"github.com/dropDatabas3/orgcrud/internal/http/errors"
	"github.com/dropDatabas3/orgcrud/internal/infra/tenantsql"
	"github.com/dropDatabas3/orgcrud/internal/observability/logger"
	"github.com/dropDatabas3/orgcrud/internal/store"
)

// PoolProvider entrega el pool de una audiencia (tenantsql.Manager).
type PoolProvider interface {
	Get(ctx context.Context, audience string) (*store.DB, error)
}

// TenantConfig configura el middleware de tenant.
type TenantConfig struct {
	Resolver *auth.Resolver
	Pools    PoolProvider
}

// WithTenant resuelve la audiencia del request, toma el pool de su base y abre
// una sesión que vive hasta que termina el request.
func WithTenant(cfg TenantConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.From(ctx).With(logger.Layer("middleware"), logger.Op("WithTenant"))

			res, err := cfg.Resolver.Resolve(ctx, r)
			if err != nil {
				log.Info("request not authenticated", logger.Err(err))
				w.Header().Set("WWW-Authenticate", cfg.Resolver.Challenge())
				errors.WriteError(w, r, err)
				return
			}

			db, err := cfg.Pools.Get(ctx, res.Audience)
			if err != nil {
				if stderrors.Is(err, tenantsql.ErrInvalidAudience) {
					w.Header().Set("WWW-Authenticate", cfg.Resolver.Challenge())
					errors.WriteError(w, r, err)
					return
				}
				log.Error("tenant database unavailable", logger.Audience(res.Audience), logger.Err(err))
				errors.WriteError(w, r, errors.ErrTenantUnavailable.WithCause(err))
				return
			}

			sess, err := db.Session(ctx)
			if err != nil {
				log.Error("tenant session unavailable", logger.Database(db.Name()), logger.Err(err))
				errors.WriteError(w, r, errors.ErrTenantUnavailable.WithCause(err))
				return
			}
			defer func() {
				if err := sess.Close(); err != nil {
					log.Warn("session close failed", logger.Err(err))
				}
			}()

			ctx = logger.Enrich(ctx, logger.Audience(res.Audience), logger.Database(db.Name()))
			if res.Claims != nil && res.Claims.Subject != "" {
				ctx = logger.Enrich(ctx, logger.Subject(res.Claims.Subject))
			}
			ctx = WithResolution(ctx, res)
			ctx = WithSession(ctx, sess)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
