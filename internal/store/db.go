package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// PoolOptions configura el pool de database/sql.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func (o PoolOptions) withDefaults() PoolOptions {
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = 15
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = 3
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = 30 * time.Minute
	}
	if o.ConnMaxIdleTime <= 0 {
		o.ConnMaxIdleTime = 5 * time.Minute
	}
	return o
}

// DB es el pool de conexiones de una base de tenant.
type DB struct {
	db      *sqlx.DB
	dialect Dialect
	name    string
}

// Open abre el pool y verifica conectividad. name es el nombre lógico de la
// base (se usa en logs y métricas).
func Open(ctx context.Context, dialect Dialect, dsn, name string, opts PoolOptions) (*DB, error) {
	db, err := sqlx.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", name, err)
	}

	opts = opts.withDefaults()
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", name, err)
	}

	return &DB{db: db, dialect: dialect, name: name}, nil
}

// Dialect devuelve el motor de la base.
func (d *DB) Dialect() Dialect { return d.dialect }

// Name devuelve el nombre lógico de la base.
func (d *DB) Name() string { return d.name }

// SQL expone el pool sqlx (migraciones, health checks).
func (d *DB) SQL() *sqlx.DB { return d.db }

// Session reserva una conexión dedicada para un request.
// El llamador debe invocar Close al terminar.
func (d *DB) Session(ctx context.Context) (*Session, error) {
	conn, err := d.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: acquire connection %s: %w", d.name, err)
	}
	return &Session{conn: conn, dialect: d.dialect}, nil
}

// Ping verifica la conectividad del pool.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Stats devuelve un snapshot del pool.
func (d *DB) Stats() sql.DBStats {
	return d.db.Stats()
}

// Close cierra el pool.
func (d *DB) Close() error {
	return d.db.Close()
}
