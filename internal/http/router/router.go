// Package router arma el árbol de rutas chi: endpoints operativos sin tenant
// y los recursos CRUD bajo el prefijo de la API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/orgcrud/internal/domain/repository"
	"github.com/dropDatabas3/orgcrud/internal/http/controllers"
	httperrors "github.com/dropDatabas3/orgcrud/internal/http/errors"
	mw "github.com/dropDatabas3/orgcrud/internal/http/middlewares"
	"github.com/dropDatabas3/orgcrud/internal/metrics"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Controllers *controllers.Controllers
	Health      *controllers.HealthController

	// APIPrefix, ej "/api/v1". Vacío monta los recursos en la raíz.
	APIPrefix string
	// CORSOrigins vacío equivale a "*".
	CORSOrigins []string
	TokenHeader string

	// Tenant resuelve la audiencia y abre la sesión (obligatorio).
	Tenant mw.Middleware
	// RateLimit es opcional.
	RateLimit mw.Middleware

	// Metrics sirve /metrics; nil lo deshabilita.
	Metrics     http.Handler
	MetricsPath string
}

// New construye el handler HTTP completo.
func New(deps Deps) http.Handler {
	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithRecover(),
		mw.WithCORS(origins, deps.TokenHeader),
	)
	if deps.Metrics != nil {
		r.Use(metrics.WithMetrics)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteError(w, r, httperrors.ErrNotFound.WithDetail("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteError(w, r, httperrors.ErrMethodNotAllowed)
	})

	// Operativos: sin auth ni tenant.
	if deps.Health != nil {
		r.Get("/healthz", deps.Health.Healthz)
		r.Get("/readyz", deps.Health.Readyz)
	}
	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, deps.Metrics)
	}

	prefix := deps.APIPrefix
	if prefix == "" {
		prefix = "/"
	}
	r.Route(prefix, func(api chi.Router) {
		if deps.RateLimit != nil {
			api.Use(deps.RateLimit)
		}
		api.Use(deps.Tenant)

		c := deps.Controllers
		mountResource(api, "user", c.Users)
		mountResource(api, "group", c.Groups)
		mountResource(api, "user-to-group", c.UserGroups)
		mountResource(api, "school", c.Schools)
		mountResource(api, "user-to-school", c.UserSchools)
	})

	return r
}

// mountResource registra las cinco rutas de un recurso.
func mountResource[T repository.Entity](r chi.Router, name string, c *controllers.CRUDController[T]) {
	r.Route("/"+name, func(r chi.Router) {
		r.Get("/", c.List)
		r.Post("/create/", c.Create)
		r.Get("/{id}/detail/", c.Detail)
		r.Patch("/{id}/update/", c.Update)
		r.Get("/{id}/delete/", c.Delete)
	})
}
