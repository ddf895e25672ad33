package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/dropDatabas3/orgcrud/internal/domain/repository"
)

var (
	_ repository.Repository[repository.User]       = (*Repository[repository.User])(nil)
	_ repository.Repository[repository.Group]      = (*Repository[repository.Group])(nil)
	_ repository.Repository[repository.UserGroup]  = (*Repository[repository.UserGroup])(nil)
	_ repository.Repository[repository.School]     = (*Repository[repository.School])(nil)
	_ repository.Repository[repository.UserSchool] = (*Repository[repository.UserSchool])(nil)
)

// Repository es la implementación genérica de repository.Repository sobre
// una sesión. Es barata de construir: se crea una por request.
type Repository[T repository.Entity] struct {
	sess   *Session
	schema repository.Schema
	now    func() time.Time
}

// NewRepository crea un repositorio para la entidad T ligado a la sesión.
func NewRepository[T repository.Entity](sess *Session) *Repository[T] {
	var zero T
	return &Repository[T]{
		sess:   sess,
		schema: zero.Schema(),
		now:    defaultNow,
	}
}

// Timestamps con precisión de microsegundos: es lo que guardan PostgreSQL y
// MySQL DATETIME(6), así lo devuelto coincide con lo persistido.
func defaultNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (r *Repository[T]) builder() sq.StatementBuilderType {
	return r.sess.dialect.Builder()
}

func (r *Repository[T]) table() string {
	return r.sess.dialect.QuoteIdent(r.schema.Table)
}

func (r *Repository[T]) errf(op string, err error) error {
	return fmt.Errorf("store: %s %s: %w", r.schema.Table, op, err)
}

// =================================================================================
// LECTURAS
// =================================================================================

// Count cuenta las filas que cumplen el filtro.
func (r *Repository[T]) Count(ctx context.Context, f repository.Filter) (int64, error) {
	if r.sess.closed {
		return 0, ErrSessionClosed
	}
	conds, err := r.conditions(f)
	if err != nil {
		return 0, r.errf("count", err)
	}

	q := r.builder().Select("COUNT(*)").From(r.table())
	for _, c := range conds {
		q = q.Where(c)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return 0, r.errf("count", err)
	}

	var n int64
	if err := sqlx.GetContext(ctx, r.sess.queryer(), &n, query, args...); err != nil {
		return 0, r.errf("count", err)
	}
	return n, nil
}

// Exists indica si al menos una fila cumple el filtro.
func (r *Repository[T]) Exists(ctx context.Context, f repository.Filter) (bool, error) {
	if r.sess.closed {
		return false, ErrSessionClosed
	}
	conds, err := r.conditions(f)
	if err != nil {
		return false, r.errf("exists", err)
	}

	q := r.builder().Select("1").From(r.table()).Limit(1)
	for _, c := range conds {
		q = q.Where(c)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return false, r.errf("exists", err)
	}

	var one int
	if err := sqlx.GetContext(ctx, r.sess.queryer(), &one, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, r.errf("exists", err)
	}
	return true, nil
}

// Get busca por id.
func (r *Repository[T]) Get(ctx context.Context, id int64) (T, error) {
	return r.GetBy(ctx, repository.By("id", id))
}

// GetBy busca exactamente una fila que cumpla el filtro.
func (r *Repository[T]) GetBy(ctx context.Context, f repository.Filter) (T, error) {
	var zero T
	rows, err := r.List(ctx, repository.ListOptions{Limit: 2, Filter: f})
	if err != nil {
		return zero, err
	}
	switch len(rows) {
	case 0:
		return zero, r.errf("get", repository.ErrNotFound)
	case 1:
		return rows[0], nil
	default:
		return zero, r.errf("get", fmt.Errorf("%w: multiple rows match", repository.ErrInvalidInput))
	}
}

// First devuelve la primera fila según orderBy (default -id).
func (r *Repository[T]) First(ctx context.Context, f repository.Filter, orderBy ...string) (T, bool, error) {
	var zero T
	rows, err := r.List(ctx, repository.ListOptions{Limit: 1, OrderBy: orderBy, Filter: f})
	if err != nil {
		return zero, false, err
	}
	if len(rows) == 0 {
		return zero, false, nil
	}
	return rows[0], true, nil
}

// List devuelve una página de filas.
func (r *Repository[T]) List(ctx context.Context, opts repository.ListOptions) ([]T, error) {
	if r.sess.closed {
		return nil, ErrSessionClosed
	}
	conds, err := r.conditions(opts.Filter)
	if err != nil {
		return nil, r.errf("list", err)
	}
	order, err := r.orderClauses(opts.OrderBy)
	if err != nil {
		return nil, r.errf("list", err)
	}

	q := r.builder().Select(r.schema.Columns...).From(r.table()).OrderBy(order...)
	for _, c := range conds {
		q = q.Where(c)
	}
	// OFFSET sin LIMIT no es válido en MySQL ni SQLite.
	if opts.Limit > 0 {
		q = q.Limit(uint64(opts.Limit))
		if opts.Offset > 0 {
			q = q.Offset(uint64(opts.Offset))
		}
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, r.errf("list", err)
	}

	rows := make([]T, 0)
	if err := sqlx.SelectContext(ctx, r.sess.queryer(), &rows, query, args...); err != nil {
		return nil, r.errf("list", err)
	}
	return rows, nil
}

// =================================================================================
// ESCRITURAS (cada una en su propia transacción)
// =================================================================================

// Create inserta una fila con los campos dados.
func (r *Repository[T]) Create(ctx context.Context, fields repository.Fields) (T, error) {
	var out T
	values, err := r.writable(fields)
	if err != nil {
		return out, r.errf("create", err)
	}
	if len(values) == 0 {
		return out, r.errf("create", fmt.Errorf("%w: no fields", repository.ErrInvalidInput))
	}
	if r.schema.Timestamps {
		values["created_at"] = r.now()
	}

	cols := sortedKeys(values)
	vals := make([]any, 0, len(cols))
	for _, c := range cols {
		vals = append(vals, values[c])
	}

	err = r.sess.InTx(ctx, func(tx *sqlx.Tx) error {
		id, err := r.insert(ctx, tx, cols, vals)
		if err != nil {
			return err
		}
		out, err = r.getTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return out, r.errf("create", r.translate(err, repository.ErrInvalidReference))
	}
	return out, nil
}

func (r *Repository[T]) insert(ctx context.Context, tx *sqlx.Tx, cols []string, vals []any) (int64, error) {
	q := r.builder().Insert(r.table()).Columns(cols...).Values(vals...)

	if r.sess.dialect.SupportsReturning() {
		query, args, err := q.Suffix("RETURNING id").ToSql()
		if err != nil {
			return 0, err
		}
		var id int64
		if err := tx.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	query, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update aplica sólo los campos presentes en changed.
func (r *Repository[T]) Update(ctx context.Context, existing T, changed repository.Fields) (T, error) {
	var out T
	id := existing.GetID()

	values, err := r.writable(changed)
	if err != nil {
		return out, r.errf("update", err)
	}
	if r.schema.Timestamps {
		values["modified_at"] = r.now()
	}
	if len(values) == 0 {
		return r.Get(ctx, id)
	}

	err = r.sess.InTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := r.builder().
			Update(r.table()).
			SetMap(values).
			Where(sq.Eq{"id": id}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
		// MySQL reporta 0 filas afectadas si los valores no cambian; se relee.
		out, err = r.getTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return out, r.errf("update", r.translate(err, repository.ErrInvalidReference))
	}
	return out, nil
}

// Delete borra la fila de existing.
func (r *Repository[T]) Delete(ctx context.Context, existing T) (T, error) {
	id := existing.GetID()

	err := r.sess.InTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := r.builder().
			Delete(r.table()).
			Where(sq.Eq{"id": id}).
			ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return existing, r.errf("delete", r.translate(err, repository.ErrConflict))
	}
	return existing, nil
}

// =================================================================================
// HELPERS
// =================================================================================

func (r *Repository[T]) getTx(ctx context.Context, tx *sqlx.Tx, id int64) (T, error) {
	var out T
	query, args, err := r.builder().
		Select(r.schema.Columns...).
		From(r.table()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return out, err
	}
	if err := tx.GetContext(ctx, &out, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return out, repository.ErrNotFound
		}
		return out, err
	}
	return out, nil
}

// translate mapea violaciones de constraint a errores de dominio.
// fkErr decide qué significa una violación de FK en la operación actual.
func (r *Repository[T]) translate(err error, fkErr error) error {
	switch classify(err) {
	case uniqueViolation:
		return fmt.Errorf("%w: %w", repository.ErrDuplicate, err)
	case foreignKeyViolation:
		return fmt.Errorf("%w: %w", fkErr, err)
	}
	return err
}

// conditions valida los parámetros de igualdad y arma las expresiones WHERE.
func (r *Repository[T]) conditions(f repository.Filter) ([]sq.Sqlizer, error) {
	out := make([]sq.Sqlizer, 0, len(f.Exprs)+1)
	if len(f.Params) > 0 {
		eq := sq.Eq{}
		for col, v := range f.Params {
			if !r.schema.HasColumn(col) {
				return nil, fmt.Errorf("%w: unknown column %q", repository.ErrInvalidInput, col)
			}
			eq[col] = v
		}
		out = append(out, eq)
	}
	for _, e := range f.Exprs {
		if e == nil {
			continue
		}
		out = append(out, sq.Sqlizer(e))
	}
	return out, nil
}

// orderClauses traduce ["-name", "id"] a ["name DESC", "id ASC"].
func (r *Repository[T]) orderClauses(orderBy []string) ([]string, error) {
	if len(orderBy) == 0 {
		return []string{"id DESC"}, nil
	}
	out := make([]string, 0, len(orderBy))
	for _, raw := range orderBy {
		col := strings.TrimSpace(raw)
		dir := "ASC"
		if strings.HasPrefix(col, "-") {
			col = strings.TrimPrefix(col, "-")
			dir = "DESC"
		}
		if !r.schema.HasColumn(col) {
			return nil, fmt.Errorf("%w: unknown order column %q", repository.ErrInvalidInput, raw)
		}
		out = append(out, col+" "+dir)
	}
	return out, nil
}

// writable copia los campos validando la allow-list del schema.
func (r *Repository[T]) writable(fields repository.Fields) (map[string]any, error) {
	out := make(map[string]any, len(fields)+1)
	for col, v := range fields {
		if !r.schema.IsWritable(col) {
			return nil, fmt.Errorf("%w: column %q is not writable", repository.ErrInvalidInput, col)
		}
		out[col] = v
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
