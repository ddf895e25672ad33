package tenantsql

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/dropDatabas3/orgcrud/internal/store"
)

// pgDuplicateDatabase es el código de CREATE DATABASE sobre una base existente.
const pgDuplicateDatabase = "42P04"

// EnsureDatabase crea la base del tenant si no existe.
// En SQLite sólo asegura el directorio: el archivo se crea al abrirlo.
func EnsureDatabase(ctx context.Context, d store.Dialect, params store.ConnParams, database string) error {
	if d == store.SQLite {
		dir := params.SQLiteDir
		if dir == "" {
			dir = "."
		}
		return os.MkdirAll(dir, 0o755)
	}

	admin, err := sqlx.ConnectContext(ctx, d.DriverName(), store.DSN(d, params, ""))
	if err != nil {
		return fmt.Errorf("tenantsql: admin connection: %w", err)
	}
	defer admin.Close()

	switch d {
	case store.MySQL:
		ddl := "CREATE DATABASE IF NOT EXISTS " + d.QuoteIdent(database) + " CHARACTER SET utf8mb4"
		if _, err := admin.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("tenantsql: create database %s: %w", database, err)
		}
		return nil

	default:
		var exists bool
		if err := admin.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", database); err != nil {
			return fmt.Errorf("tenantsql: lookup database %s: %w", database, err)
		}
		if exists {
			return nil
		}
		if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+d.QuoteIdent(database)); err != nil {
			// Otro proceso pudo crearla entre el lookup y el CREATE.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgDuplicateDatabase {
				return nil
			}
			return fmt.Errorf("tenantsql: create database %s: %w", database, err)
		}
		return nil
	}
}
