// Package store implementa el acceso SQL de las bases de cada tenant:
// apertura de pools, sesiones por request y el repositorio genérico.
//
// Soporta tres motores detrás de database/sql:
//   - postgres: github.com/jackc/pgx/v5/stdlib (driver "pgx")
//   - mysql:    github.com/go-sql-driver/mysql
//   - sqlite:   github.com/mattn/go-sqlite3 (local y tests)
//
// Las consultas se arman con squirrel y se escanean con sqlx.
package store

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Dialect identifica el motor SQL de una base.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// ParseDialect normaliza el nombre del driver configurado.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "postgres", "postgresql", "pg", "pgx":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("store: unsupported driver %q", s)
	}
}

// DriverName devuelve el nombre registrado en database/sql.
func (d Dialect) DriverName() string {
	switch d {
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite3"
	default:
		return "pgx"
	}
}

// Placeholder devuelve el formato de placeholders para squirrel.
func (d Dialect) Placeholder() sq.PlaceholderFormat {
	if d == Postgres {
		return sq.Dollar
	}
	return sq.Question
}

// Builder devuelve un StatementBuilder con el placeholder del motor.
func (d Dialect) Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(d.Placeholder())
}

// SupportsReturning indica si INSERT ... RETURNING está disponible.
// MySQL usa LastInsertId.
func (d Dialect) SupportsReturning() bool {
	return d != MySQL
}

// QuoteIdent cita un identificador (tabla o base).
// Necesario porque "groups" es palabra reservada en MySQL 8.
func (d Dialect) QuoteIdent(name string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
