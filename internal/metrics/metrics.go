// Package metrics expone las métricas Prometheus del servicio: tráfico HTTP,
// migraciones de tenant y estado de los pools por tenant.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/orgcrud/internal/infra/tenantsql"
)

var (
	metricsOnce sync.Once
	metricsErr  error

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec

	// Tenant migration metrics
	tenantMigrationsTotal   *prometheus.CounterVec
	tenantMigrationDuration *prometheus.HistogramVec
)

// PoolStatser es la vista del Manager que necesita el collector de pools.
type PoolStatser interface {
	Stats() map[string]tenantsql.PoolStat
}

// Config agrupa dependencias necesarias para exponer /metrics y capturar datos.
type Config struct {
	Registry prometheus.Registerer
	Gatherer prometheus.Gatherer
	Pools    PoolStatser
}

// Register inicializa las métricas HTTP y, si hay pools, registra un collector
// con su estado. Devuelve el handler para /metrics.
func Register(cfg Config) (http.Handler, error) {
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método y ruta",
		}, []string{"method", "path"})

		tenantMigrationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tenant_migrations_total",
			Help: "Total de migraciones de tenant por resultado",
		}, []string{"database", "result"}) // result: applied|skipped|failed

		tenantMigrationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tenant_migration_duration_seconds",
			Help:    "Duración de migraciones de tenant",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		}, []string{"database"})

		for _, c := range []prometheus.Collector{
			httpRequestsTotal, httpRequestDuration, httpInflight,
			tenantMigrationsTotal, tenantMigrationDuration,
		} {
			if err := registerCollector(registry, c); err != nil {
				metricsErr = err
				return
			}
		}
	})
	if metricsErr != nil {
		return nil, metricsErr
	}

	if cfg.Pools != nil {
		if err := registerCollector(registry, newPoolCollector(cfg.Pools)); err != nil {
			return nil, err
		}
	}

	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}), nil
}

// WithMetrics instrumenta requests HTTP (contadores, latencia, inflight).
// Sin Register previo es un no-op.
func WithMetrics(next http.Handler) http.Handler {
	if httpRequestsTotal == nil || httpRequestDuration == nil || httpInflight == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		pathLabel := normalizePath(r.URL.Path)

		httpInflight.WithLabelValues(method, pathLabel).Inc()
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			httpInflight.WithLabelValues(method, pathLabel).Dec()
			httpRequestDuration.WithLabelValues(method, pathLabel).Observe(time.Since(start).Seconds())

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

// RecordTenantMigration registra el resultado de una migración de tenant.
// Tiene la firma de tenantsql.MigrationMetricsFunc.
func RecordTenantMigration(database, result string, duration time.Duration) {
	if tenantMigrationsTotal != nil {
		tenantMigrationsTotal.WithLabelValues(database, result).Inc()
	}
	if tenantMigrationDuration != nil {
		tenantMigrationDuration.WithLabelValues(database).Observe(duration.Seconds())
	}
}

var _ tenantsql.MigrationMetricsFunc = RecordTenantMigration

// registerCollector registra el collector ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

// normalizePath reemplaza segmentos numéricos por ":id" para acotar la
// cardinalidad ("/api/school/12/detail/" -> "/api/school/:id/detail").
func normalizePath(p string) string {
	clean := strings.SplitN(p, "?", 2)[0]
	var out []string
	for _, seg := range strings.Split(clean, "/") {
		if seg == "" {
			continue
		}
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil || len(seg) > 48 {
			seg = ":id"
		}
		out = append(out, seg)
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}
