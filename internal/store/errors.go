package store

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// ErrSessionClosed se devuelve al usar una sesión ya liberada.
var ErrSessionClosed = errors.New("store: session closed")

type violation int

const (
	noViolation violation = iota
	uniqueViolation
	foreignKeyViolation
)

// Códigos de error por motor.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	mysqlDupEntry         = 1062
	mysqlRowIsReferenced  = 1451 // DELETE de una fila referenciada
	mysqlNoReferencedRow  = 1452 // INSERT/UPDATE con FK colgante
	mysqlRowIsReferenced2 = 1217
	mysqlNoReferencedRow2 = 1216
)

// classify traduce el error del driver a una violación de constraint.
func classify(err error) violation {
	if err == nil {
		return noViolation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return uniqueViolation
		case pgForeignKeyViolation:
			return foreignKeyViolation
		}
		return noViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDupEntry:
			return uniqueViolation
		case mysqlRowIsReferenced, mysqlNoReferencedRow, mysqlRowIsReferenced2, mysqlNoReferencedRow2:
			return foreignKeyViolation
		}
		return noViolation
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return uniqueViolation
		case sqlite3.ErrConstraintForeignKey, sqlite3.ErrConstraintTrigger:
			// ON DELETE RESTRICT se reporta como TRIGGER (1811), no como FOREIGNKEY (787).
			return foreignKeyViolation
		}
	}
	return noViolation
}
