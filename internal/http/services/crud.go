package services

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/dropDatabas3/orgcrud/internal/domain/repository"
	"github.com/dropDatabas3/orgcrud/internal/observability/logger"
	"github.com/dropDatabas3/orgcrud/internal/store"
	"github.com/dropDatabas3/orgcrud/internal/validation"
)

// Service define las operaciones CRUD de un recurso sobre la sesión del tenant.
type Service[T repository.Entity] interface {
	// Label es el nombre visible del recurso ("School", "User to group relation").
	Label() string
	List(ctx context.Context, sess *store.Session, opts repository.ListOptions) ([]T, int64, error)
	Get(ctx context.Context, sess *store.Session, id int64) (T, error)
	Create(ctx context.Context, sess *store.Session, fields repository.Fields) (T, error)
	Update(ctx context.Context, sess *store.Session, id int64, fields repository.Fields) (T, error)
	Delete(ctx context.Context, sess *store.Session, id int64) (T, error)
}

// uniqueRule describe una restricción de unicidad que se pre-chequea con Exists.
type uniqueRule[T repository.Entity] struct {
	columns []string
	// field es el campo reportado en loc.
	field   string
	message string
	// current devuelve los valores actuales de columns para un update parcial.
	current func(T) map[string]any
}

// reference es una FK que se verifica antes de escribir.
type reference struct {
	field   string
	message string
	exists  func(ctx context.Context, sess *store.Session, id int64) (bool, error)
}

// refTo arma una reference contra la tabla de R.
func refTo[R repository.Entity](field, label string) reference {
	return reference{
		field:   field,
		message: label + " does not exist",
		exists: func(ctx context.Context, sess *store.Session, id int64) (bool, error) {
			return store.NewRepository[R](sess).Exists(ctx, repository.By("id", id))
		},
	}
}

type crudService[T repository.Entity] struct {
	label  string
	unique *uniqueRule[T]
	refs   []reference
}

func (s *crudService[T]) Label() string { return s.label }

func (s *crudService[T]) log(ctx context.Context, op string) *zap.Logger {
	return logger.From(ctx).With(
		logger.Layer("service"),
		logger.Resource(s.label),
		logger.Op(op),
	)
}

func (s *crudService[T]) List(ctx context.Context, sess *store.Session, opts repository.ListOptions) ([]T, int64, error) {
	repo := store.NewRepository[T](sess)

	rows, err := repo.List(ctx, opts)
	if err != nil {
		return nil, 0, err
	}
	count, err := repo.Count(ctx, opts.Filter)
	if err != nil {
		return nil, 0, err
	}

	s.log(ctx, "List").Debug("rows listed", logger.Count(len(rows)), logger.Int64("total", count))
	return rows, count, nil
}

func (s *crudService[T]) Get(ctx context.Context, sess *store.Session, id int64) (T, error) {
	return store.NewRepository[T](sess).Get(ctx, id)
}

func (s *crudService[T]) Create(ctx context.Context, sess *store.Session, fields repository.Fields) (T, error) {
	var zero T
	log := s.log(ctx, "Create")
	repo := store.NewRepository[T](sess)

	if err := s.checkRefs(ctx, sess, fields); err != nil {
		return zero, err
	}
	if err := s.checkUnique(ctx, repo, fields, nil); err != nil {
		return zero, err
	}

	out, err := repo.Create(ctx, fields)
	if err != nil {
		return zero, s.translate(err, fields, nil)
	}

	log.Info("entity created", logger.EntityID(out.GetID()))
	return out, nil
}

func (s *crudService[T]) Update(ctx context.Context, sess *store.Session, id int64, fields repository.Fields) (T, error) {
	var zero T
	log := s.log(ctx, "Update").With(logger.EntityID(id))
	repo := store.NewRepository[T](sess)

	existing, err := repo.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := s.checkRefs(ctx, sess, fields); err != nil {
		return zero, err
	}
	if err := s.checkUnique(ctx, repo, fields, &existing); err != nil {
		return zero, err
	}

	out, err := repo.Update(ctx, existing, fields)
	if err != nil {
		return zero, s.translate(err, fields, &existing)
	}

	log.Info("entity updated", logger.Count(len(fields)))
	return out, nil
}

func (s *crudService[T]) Delete(ctx context.Context, sess *store.Session, id int64) (T, error) {
	var zero T
	log := s.log(ctx, "Delete").With(logger.EntityID(id))
	repo := store.NewRepository[T](sess)

	existing, err := repo.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	out, err := repo.Delete(ctx, existing)
	if err != nil {
		if repository.IsConflict(err) {
			log.Info("delete blocked by reference")
		}
		return zero, err
	}

	log.Info("entity deleted")
	return out, nil
}

// checkRefs valida que las FKs presentes en fields apunten a filas existentes.
func (s *crudService[T]) checkRefs(ctx context.Context, sess *store.Session, fields repository.Fields) error {
	v := validation.New(validation.Body)
	for _, ref := range s.refs {
		raw, ok := fields[ref.field]
		if !ok {
			continue
		}
		id, _ := raw.(int64)
		found, err := ref.exists(ctx, sess, id)
		if err != nil {
			return err
		}
		if !found {
			v.Add(ref.field, "value_error", ref.message, raw)
		}
	}
	return v.Err()
}

// checkUnique hace el pre-chequeo con Exists. En updates sólo corre si alguna
// columna de la regla cambia, combinando los valores nuevos con los actuales.
func (s *crudService[T]) checkUnique(ctx context.Context, repo repository.Repository[T], fields repository.Fields, existing *T) error {
	if s.unique == nil {
		return nil
	}
	params, ok := s.uniqueParams(fields, existing)
	if !ok {
		return nil
	}

	f := repository.Filter{Params: params}
	if existing != nil {
		f = f.And(sq.NotEq{"id": (*existing).GetID()})
	}
	taken, err := repo.Exists(ctx, f)
	if err != nil {
		return err
	}
	if taken {
		return s.duplicate(params)
	}
	return nil
}

func (s *crudService[T]) uniqueParams(fields repository.Fields, existing *T) (map[string]any, bool) {
	changed := false
	for _, col := range s.unique.columns {
		if _, ok := fields[col]; ok {
			changed = true
		}
	}
	if !changed {
		return nil, false
	}

	var cur map[string]any
	if existing != nil {
		cur = s.unique.current(*existing)
	}
	params := make(map[string]any, len(s.unique.columns))
	for _, col := range s.unique.columns {
		if v, ok := fields[col]; ok {
			params[col] = v
		} else if v, ok := cur[col]; ok {
			params[col] = v
		} else {
			return nil, false
		}
	}
	return params, true
}

func (s *crudService[T]) duplicate(params map[string]any) error {
	return validation.Field(validation.Body, s.unique.field, "value_error", s.unique.message, params[s.unique.field])
}

// translate convierte violaciones detectadas por la base (carreras contra el
// pre-chequeo) en el mismo error de campo que el pre-chequeo.
func (s *crudService[T]) translate(err error, fields repository.Fields, existing *T) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate) && s.unique != nil:
		params, ok := s.uniqueParams(fields, existing)
		if !ok {
			params = map[string]any(fields)
		}
		return errors.Join(s.duplicate(params), err)
	case errors.Is(err, repository.ErrInvalidReference) && len(s.refs) > 0:
		ref := s.refs[0]
		for _, r := range s.refs {
			if _, ok := fields[r.field]; ok {
				ref = r
				break
			}
		}
		return errors.Join(validation.Field(validation.Body, ref.field, "value_error", ref.message, fields[ref.field]), err)
	}
	return err
}
