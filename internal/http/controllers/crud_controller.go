package controllers

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/orgcrud/internal/domain/repository"
	"github.com/dropDatabas3/orgcrud/internal/http/dto"
	httperrors "github.com/dropDatabas3/orgcrud/internal/http/errors"
	"github.com/dropDatabas3/orgcrud/internal/http/helpers"
	mw "github.com/dropDatabas3/orgcrud/internal/http/middlewares"
	"github.com/dropDatabas3/orgcrud/internal/http/services"
	"github.com/dropDatabas3/orgcrud/internal/observability/logger"
)

// Options son los parámetros compartidos por los controllers CRUD.
type Options struct {
	Pagination helpers.Pagination
	// MaxBodyBytes limita el body de create/update.
	MaxBodyBytes int64
}

// CRUDController expone list/detail/create/update/delete de un recurso.
type CRUDController[T repository.Entity] struct {
	service   services.Service[T]
	newCreate func() dto.Input
	newUpdate func() dto.Input
	kinds     map[string]helpers.Kind
	opts      Options
}

// NewCRUDController crea el controller de un recurso. newCreate/newUpdate
// devuelven un payload vacío por request; kinds tipa los filtros de query.
func NewCRUDController[T repository.Entity](
	service services.Service[T],
	newCreate, newUpdate func() dto.Input,
	kinds map[string]helpers.Kind,
	opts Options,
) *CRUDController[T] {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = helpers.DefaultMaxBody
	}
	return &CRUDController[T]{
		service:   service,
		newCreate: newCreate,
		newUpdate: newUpdate,
		kinds:     kinds,
		opts:      opts,
	}
}

// List maneja GET /{resource}/
func (c *CRUDController[T]) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mw.MustGetSession(ctx)

	var zero T
	q, err := helpers.ParseListQuery(r, zero.Schema(), c.kinds, c.opts.Pagination)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	rows, count, err := c.service.List(ctx, sess, q.Options)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.ListResponse[T]{
		Count: count,
		Limit: q.Limit,
		Page:  q.Page,
		Rows:  rows,
	})
}

// Detail maneja GET /{resource}/{id}/detail/
func (c *CRUDController[T]) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := helpers.PathID(r)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	out, err := c.service.Get(ctx, mw.MustGetSession(ctx), id)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// Create maneja POST /{resource}/create/
func (c *CRUDController[T]) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(
		logger.Layer("controller"),
		logger.Op("CRUDController.Create"),
		logger.Resource(c.service.Label()),
	)

	in := c.newCreate()
	if err := c.decode(w, r, in); err != nil {
		log.Debug("invalid payload", logger.Err(err))
		httperrors.WriteError(w, r, err)
		return
	}

	out, err := c.service.Create(ctx, mw.MustGetSession(ctx), in.Fields())
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, dto.MessageResponse[T]{
		Message: c.service.Label() + " created",
		Data:    out,
	})
}

// Update maneja PATCH /{resource}/{id}/update/
func (c *CRUDController[T]) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(
		logger.Layer("controller"),
		logger.Op("CRUDController.Update"),
		logger.Resource(c.service.Label()),
	)

	id, err := helpers.PathID(r)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	in := c.newUpdate()
	if err := c.decode(w, r, in); err != nil {
		log.Debug("invalid payload", logger.EntityID(id), logger.Err(err))
		httperrors.WriteError(w, r, err)
		return
	}

	out, err := c.service.Update(ctx, mw.MustGetSession(ctx), id, in.Fields())
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse[T]{
		Message: c.service.Label() + " updated",
		Data:    out,
	})
}

// Delete maneja GET /{resource}/{id}/delete/
func (c *CRUDController[T]) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := helpers.PathID(r)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	out, err := c.service.Delete(ctx, mw.MustGetSession(ctx), id)
	if err != nil {
		if repository.IsConflict(err) {
			err = httperrors.ErrDeleteConflict.
				WithMessage("Can't delete " + strings.ToLower(c.service.Label())).
				WithCause(err)
		}
		httperrors.WriteError(w, r, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse[T]{
		Message: c.service.Label() + " deleted",
		Data:    out,
	})
}

// decode lee el body, normaliza y valida el payload.
func (c *CRUDController[T]) decode(w http.ResponseWriter, r *http.Request, in dto.Input) error {
	if err := helpers.ReadJSON(w, r, in, c.opts.MaxBodyBytes); err != nil {
		return err
	}
	in.Normalize()
	return in.Validate()
}
