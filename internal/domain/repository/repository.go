package repository

import (
	"context"
	"slices"
)

// Expr es una expresión de filtro compilable a SQL.
// Los tipos de squirrel (Eq, NotEq, Gt, Like, And, Or...) la satisfacen.
type Expr interface {
	ToSql() (string, []any, error)
}

// Filter combina expresiones arbitrarias y parámetros de igualdad.
// Todas las condiciones se unen con AND.
type Filter struct {
	Exprs  []Expr
	Params map[string]any
}

// By arma un Filter de igualdad sobre una sola columna.
func By(column string, value any) Filter {
	return Filter{Params: map[string]any{column: value}}
}

// Where arma un Filter a partir de expresiones.
func Where(exprs ...Expr) Filter {
	return Filter{Exprs: exprs}
}

// And devuelve una copia del filtro con expresiones adicionales.
func (f Filter) And(exprs ...Expr) Filter {
	out := Filter{Params: f.Params}
	out.Exprs = append(slices.Clone(f.Exprs), exprs...)
	return out
}

// IsEmpty indica si el filtro no restringe nada.
func (f Filter) IsEmpty() bool {
	return len(f.Exprs) == 0 && len(f.Params) == 0
}

// ListOptions parametriza Repository.List.
type ListOptions struct {
	Offset int
	Limit  int
	// OrderBy acepta columnas del schema; el prefijo "-" ordena descendente.
	// Vacío equivale a "-id".
	OrderBy []string
	Filter  Filter
}

// Fields es un mapa columna -> valor ya validado para create/update.
type Fields map[string]any

// Schema describe la tabla que respalda una entidad.
type Schema struct {
	Table string
	// Columns son todas las columnas seleccionables, incluida id.
	Columns []string
	// Writable es la allow-list de columnas aceptadas en create/update.
	Writable []string
	// Filterable son las columnas expuestas como filtros de igualdad en la API.
	Filterable []string
	// Timestamps indica si la tabla tiene created_at / modified_at.
	Timestamps bool
}

// HasColumn reporta si la columna existe en la tabla.
func (s Schema) HasColumn(col string) bool { return slices.Contains(s.Columns, col) }

// IsWritable reporta si la columna puede escribirse desde create/update.
func (s Schema) IsWritable(col string) bool { return slices.Contains(s.Writable, col) }

// IsFilterable reporta si la columna puede usarse como filtro desde la API.
func (s Schema) IsFilterable(col string) bool { return slices.Contains(s.Filterable, col) }

// Entity es la restricción de tipo del repositorio genérico.
type Entity interface {
	Schema() Schema
	GetID() int64
}

// Repository es el contrato genérico de persistencia, idéntico para todas las entidades.
type Repository[T Entity] interface {
	// Count cuenta las filas que cumplen el filtro (ignora paginación).
	Count(ctx context.Context, f Filter) (int64, error)

	// Exists indica si al menos una fila cumple el filtro.
	Exists(ctx context.Context, f Filter) (bool, error)

	// Get busca por id. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, id int64) (T, error)

	// GetBy busca exactamente una fila que cumpla el filtro.
	// Retorna ErrNotFound si no hay ninguna.
	GetBy(ctx context.Context, f Filter) (T, error)

	// First devuelve la primera fila según el orden indicado; ok=false si no hay filas.
	First(ctx context.Context, f Filter, orderBy ...string) (T, bool, error)

	// List devuelve una página de filas. Orden por defecto: id descendente.
	List(ctx context.Context, opts ListOptions) ([]T, error)

	// Create inserta una fila, asigna id y created_at, y devuelve la entidad persistida.
	// Retorna ErrDuplicate ante violaciones de unicidad.
	Create(ctx context.Context, fields Fields) (T, error)

	// Update aplica sólo los campos presentes, refresca modified_at y devuelve la fila.
	Update(ctx context.Context, existing T, changed Fields) (T, error)

	// Delete borra la fila. Retorna ErrConflict si otra fila la referencia;
	// en ese caso la transacción se revierte y la fila queda intacta.
	Delete(ctx context.Context, existing T) (T, error)
}
