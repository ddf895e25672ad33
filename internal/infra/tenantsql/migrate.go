package tenantsql

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/dropDatabas3/orgcrud/internal/observability/logger"
	"github.com/dropDatabas3/orgcrud/internal/store"
	mysqlmig "github.com/dropDatabas3/orgcrud/migrations/mysql"
	pgmig "github.com/dropDatabas3/orgcrud/migrations/postgres"
	sqlitemig "github.com/dropDatabas3/orgcrud/migrations/sqlite"
)

const migrationsTable = "schema_migrations"

// lockTimeout es el máximo que se espera por el lock de migración de otro proceso.
const lockTimeout = 30 * time.Second

// Source devuelve las migraciones embebidas del motor y su directorio.
func Source(d store.Dialect) (fs.FS, string) {
	switch d {
	case store.MySQL:
		return mysqlmig.TenantFS, mysqlmig.TenantDir
	case store.SQLite:
		return sqlitemig.TenantFS, sqlitemig.TenantDir
	default:
		return pgmig.TenantFS, pgmig.TenantDir
	}
}

// tenantLockID genera un ID único para pg_advisory_lock basado en la base.
func tenantLockID(database string) int64 {
	h := sha256.Sum256([]byte("tenant_migration:" + database))
	return int64(binary.BigEndian.Uint64(h[:8]))
}

// RunMigrationsWithLock aplica las migraciones pendientes de la base bajo un
// lock exclusivo, para que dos procesos no migren la misma base a la vez.
// Devuelve cuántos scripts se aplicaron.
func RunMigrationsWithLock(ctx context.Context, db *store.DB) (int, error) {
	// Los locks de sesión exigen usar siempre la misma conexión.
	conn, err := db.SQL().Connx(ctx)
	if err != nil {
		return 0, fmt.Errorf("tenantsql: migration connection %s: %w", db.Name(), err)
	}
	defer conn.Close()

	unlock, err := acquireLock(ctx, conn, db.Dialect(), db.Name())
	if err != nil {
		return 0, err
	}
	defer unlock()

	fsys, dir := Source(db.Dialect())
	return runMigrations(ctx, conn, db.Dialect(), fsys, dir)
}

// =================================================================================
// LOCKS
// =================================================================================

var sqliteLocks sync.Map // database -> *sync.Mutex

func acquireLock(ctx context.Context, conn *sqlx.Conn, d store.Dialect, database string) (func(), error) {
	log := logger.L().With(logger.Component("tenantsql"), logger.Database(database))

	switch d {
	case store.Postgres:
		lockID := tenantLockID(database)
		lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
		defer cancel()

		var acquired bool
		if err := conn.QueryRowxContext(lockCtx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&acquired); err != nil {
			return nil, fmt.Errorf("tenantsql: migration lock %s: %w", database, err)
		}
		if !acquired {
			log.Info("migration lock held by another process, waiting")
			if _, err := conn.ExecContext(lockCtx, "SELECT pg_advisory_lock($1)", lockID); err != nil {
				return nil, fmt.Errorf("tenantsql: wait migration lock %s: %w", database, err)
			}
		}
		return func() {
			if _, err := conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", lockID); err != nil {
				log.Warn("failed to release migration lock", logger.Err(err))
			}
		}, nil

	case store.MySQL:
		name := fmt.Sprintf("tenant_migration:%x", uint64(tenantLockID(database)))
		var got sql.NullInt64
		if err := conn.QueryRowxContext(ctx, "SELECT GET_LOCK(?, ?)", name, int(lockTimeout.Seconds())).Scan(&got); err != nil {
			return nil, fmt.Errorf("tenantsql: migration lock %s: %w", database, err)
		}
		if !got.Valid || got.Int64 != 1 {
			return nil, fmt.Errorf("tenantsql: migration lock %s: timeout", database)
		}
		return func() {
			if _, err := conn.ExecContext(context.Background(), "SELECT RELEASE_LOCK(?)", name); err != nil {
				log.Warn("failed to release migration lock", logger.Err(err))
			}
		}, nil

	default:
		v, _ := sqliteLocks.LoadOrStore(database, &sync.Mutex{})
		mu := v.(*sync.Mutex)
		mu.Lock()
		return mu.Unlock, nil
	}
}

// =================================================================================
// EJECUCIÓN
// =================================================================================

func runMigrations(ctx context.Context, conn *sqlx.Conn, d store.Dialect, fsys fs.FS, dir string) (int, error) {
	if err := ensureMigrationsTable(ctx, conn, d); err != nil {
		return 0, err
	}

	var done []string
	if err := conn.SelectContext(ctx, &done, "SELECT version FROM "+migrationsTable); err != nil {
		return 0, fmt.Errorf("tenantsql: read applied migrations: %w", err)
	}
	applied := make(map[string]bool, len(done))
	for _, v := range done {
		applied[v] = true
	}

	files, err := migrationFiles(fsys, dir)
	if err != nil {
		return 0, err
	}

	var n int
	for _, name := range files {
		version := strings.TrimSuffix(name, "_up.sql")
		if applied[version] {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return n, err
		}
		if err := applyScript(ctx, conn, d, version, string(b)); err != nil {
			return n, fmt.Errorf("tenantsql: apply %s: %w", name, err)
		}
		logger.L().Debug("migration applied", logger.Component("tenantsql"), zap.String("version", version))
		n++
	}
	return n, nil
}

func ensureMigrationsTable(ctx context.Context, conn *sqlx.Conn, d store.Dialect) error {
	tsType := "TIMESTAMP"
	switch d {
	case store.Postgres:
		tsType = "TIMESTAMPTZ"
	case store.MySQL:
		tsType = "DATETIME(6)"
	}
	ddl := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (version VARCHAR(255) NOT NULL PRIMARY KEY, applied_at %s NOT NULL)",
		migrationsTable, tsType,
	)
	if _, err := conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("tenantsql: create %s: %w", migrationsTable, err)
	}
	return nil
}

// applyScript ejecuta un script y registra su versión en la misma transacción.
// En MySQL el DDL hace commit implícito; en PostgreSQL y SQLite es atómico.
func applyScript(ctx context.Context, conn *sqlx.Conn, d store.Dialect, version, script string) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range splitStatements(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	query, args, err := d.Builder().
		Insert(migrationsTable).
		Columns("version", "applied_at").
		Values(version, time.Now().UTC()).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	return tx.Commit()
}

// migrationFiles lista los *_up.sql del directorio en orden lexicográfico.
func migrationFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), "_up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// splitStatements separa un script en sentencias terminadas en ";" al final de
// línea. Descarta líneas vacías y comentarios "--".
func splitStatements(script string) []string {
	var out []string
	var b strings.Builder
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSuffix(strings.TrimSpace(b.String()), ";")
			out = append(out, stmt)
			b.Reset()
		}
	}
	if rest := strings.TrimSpace(b.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}
