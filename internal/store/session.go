package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Session es una conexión reservada para un único request.
// No es segura para uso concurrente: pertenece a la goroutine del request.
type Session struct {
	conn    *sqlx.Conn
	dialect Dialect
	tx      *sqlx.Tx
	closed  bool
}

// Dialect devuelve el motor de la sesión.
func (s *Session) Dialect() Dialect { return s.dialect }

// queryer devuelve la transacción activa o la conexión.
func (s *Session) queryer() sqlx.QueryerContext {
	if s.tx != nil {
		return s.tx
	}
	return s.conn
}

// InTx ejecuta fn dentro de una transacción. Si fn falla (o hace panic) la
// transacción se revierte antes de devolver; si no, se confirma.
func (s *Session) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	if s.closed {
		return ErrSessionClosed
	}
	if s.tx != nil {
		return fmt.Errorf("store: nested transaction not supported")
	}

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	s.tx = tx
	defer func() { s.tx = nil }()

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("store: rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Close revierte cualquier transacción pendiente y devuelve la conexión al pool.
// Es idempotente.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	return s.conn.Close()
}
