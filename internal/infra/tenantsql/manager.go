// Package tenantsql administra las bases de datos por tenant: traduce la
// audiencia del token a un nombre de base, abre el pool de forma perezosa,
// aplica migraciones y mantiene el registro de pools del proceso.
package tenantsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/orgcrud/internal/observability/logger"
	"github.com/dropDatabas3/orgcrud/internal/store"
)

// ErrManagerClosed se devuelve al pedir un pool después de Close.
var ErrManagerClosed = errors.New("tenantsql: manager closed")

// MigrationMetricsFunc callback para reportar métricas de migraciones.
type MigrationMetricsFunc func(tenant, result string, duration time.Duration)

// Config permite personalizar la instancia del Manager.
type Config struct {
	Dialect store.Dialect
	Conn    store.ConnParams
	// NamePrefix se antepone al nombre de base derivado de la audiencia.
	NamePrefix string
	// AutoCreate ejecuta CREATE DATABASE si la base no existe.
	AutoCreate bool
	Pool       store.PoolOptions
	// OpenTimeout limita la creación de un pool (conexión + migraciones).
	OpenTimeout time.Duration
	MetricsFunc MigrationMetricsFunc // Opcional: callback para métricas
}

// PoolStat es un snapshot del estado de un pool específico.
type PoolStat struct {
	Tenant    string
	Database  string
	Open      int
	InUse     int
	Idle      int
	WaitCount int64
}

// Manager administra pools de base de datos por tenant, aplicando migraciones on-demand
// y evitando creaciones en paralelo mediante singleflight. El primer pool creado
// para una audiencia gana; los requests concurrentes reutilizan ese mismo pool.
type Manager struct {
	cfg Config

	mu     sync.RWMutex
	dbs    map[string]*store.DB
	closed bool
	sf     singleflight.Group
}

// New crea un nuevo Manager con la configuración indicada.
func New(cfg Config) (*Manager, error) {
	if cfg.Dialect == "" {
		cfg.Dialect = store.Postgres
	}
	if _, err := store.ParseDialect(string(cfg.Dialect)); err != nil {
		return nil, err
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = time.Minute
	}
	return &Manager{
		cfg: cfg,
		dbs: make(map[string]*store.DB),
	}, nil
}

// Dialect devuelve el motor configurado.
func (m *Manager) Dialect() store.Dialect { return m.cfg.Dialect }

// DatabaseName devuelve el nombre de base al que mapea la audiencia.
func (m *Manager) DatabaseName(audience string) (string, error) {
	return DatabaseName(m.cfg.NamePrefix, audience)
}

// Get devuelve (o crea) el pool asociado a la audiencia.
func (m *Manager) Get(ctx context.Context, audience string) (*store.DB, error) {
	audience = strings.TrimSpace(audience)
	if audience == "" {
		return nil, ErrInvalidAudience
	}

	if db, ok, err := m.lookup(audience); ok || err != nil {
		return db, err
	}

	result, err, _ := m.sf.Do(audience, func() (interface{}, error) {
		// Otro llamador pudo registrarlo entre el lookup y el Do.
		if db, ok, err := m.lookup(audience); ok || err != nil {
			return db, err
		}

		// La creación no depende del request que la disparó: si ese request se
		// cancela, los que esperan en el singleflight no deben fallar.
		createCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.OpenTimeout)
		defer cancel()

		db, err := m.createDB(createCtx, audience)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed {
			_ = db.Close()
			return nil, ErrManagerClosed
		}
		m.dbs[audience] = db
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*store.DB), nil
}

func (m *Manager) lookup(audience string) (*store.DB, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrManagerClosed
	}
	db, ok := m.dbs[audience]
	return db, ok, nil
}

func (m *Manager) createDB(ctx context.Context, audience string) (*store.DB, error) {
	name, err := m.DatabaseName(audience)
	if err != nil {
		return nil, err
	}
	log := logger.L().With(logger.Component("tenantsql"), logger.Audience(audience), logger.Database(name))

	if m.cfg.AutoCreate {
		if err := EnsureDatabase(ctx, m.cfg.Dialect, m.cfg.Conn, name); err != nil {
			return nil, err
		}
	}

	db, err := store.Open(ctx, m.cfg.Dialect, store.DSN(m.cfg.Dialect, m.cfg.Conn, name), name, m.cfg.Pool)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	applied, err := RunMigrationsWithLock(ctx, db)
	migrationDuration := time.Since(start)

	if err != nil {
		m.reportMigration(name, "failed", migrationDuration)
		_ = db.Close()
		return nil, fmt.Errorf("tenantsql: migrate %s: %w", name, err)
	}

	result := "applied"
	if applied == 0 {
		result = "skipped"
	}
	m.reportMigration(name, result, migrationDuration)

	log.Info("tenant pool ready",
		logger.Count(applied),
		logger.String("driver", string(m.cfg.Dialect)),
		logger.Duration(migrationDuration),
	)
	return db, nil
}

func (m *Manager) reportMigration(tenant, result string, d time.Duration) {
	if m.cfg.MetricsFunc != nil {
		m.cfg.MetricsFunc(tenant, result, d)
	}
}

// PoolCount retorna el número de pools activos.
func (m *Manager) PoolCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.dbs)
}

// Stats devuelve un snapshot con los stats actuales de cada pool.
func (m *Manager) Stats() map[string]PoolStat {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]PoolStat, len(m.dbs))
	for audience, db := range m.dbs {
		st := db.Stats()
		out[audience] = PoolStat{
			Tenant:    audience,
			Database:  db.Name(),
			Open:      st.OpenConnections,
			InUse:     st.InUse,
			Idle:      st.Idle,
			WaitCount: st.WaitCount,
		}
	}
	return out
}

// Close cierra todos los pools activos. Los Get posteriores fallan con ErrManagerClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for audience, db := range m.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", audience, err))
		}
		delete(m.dbs, audience)
	}
	m.closed = true
	return errors.Join(errs...)
}
