// Package errors define el sobre de error de la API ({code, message, detail,
// fields}) y la traducción desde errores de dominio, auth y validación.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dropDatabas3/orgcrud/internal/auth"
	"github.com/dropDatabas3/orgcrud/internal/domain/repository"
	"github.com/dropDatabas3/orgcrud/internal/infra/tenantsql"
	"github.com/dropDatabas3/orgcrud/internal/observability/logger"
	"github.com/dropDatabas3/orgcrud/internal/validation"
)

// errorResponse controla exactamente qué campos se envían al cliente.
type errorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Detail  string                  `json:"detail,omitempty"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

// FromError convierte cualquier error en un AppError.
// Los errores sin mapeo terminan como 500 conservando la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	var verrs validation.Errors
	if stderrors.As(err, &verrs) {
		return ErrValidation.WithFields(verrs).WithCause(err)
	}

	switch {
	case stderrors.Is(err, auth.ErrTokenMissing):
		return ErrTokenMissing.WithCause(err)
	case stderrors.Is(err, auth.ErrTokenExpired):
		return ErrTokenExpired.WithCause(err)
	case stderrors.Is(err, auth.ErrAudienceMissing), stderrors.Is(err, auth.ErrAudienceNotAllowed):
		return ErrAudienceInvalid.WithCause(err)
	case stderrors.Is(err, auth.ErrTokenInvalid):
		return ErrTokenInvalid.WithCause(err)

	case repository.IsNotFound(err):
		return ErrNotFound.WithCause(err)
	case repository.IsConflict(err):
		return ErrDeleteConflict.WithCause(err)
	case repository.IsDuplicate(err), repository.IsInvalidReference(err):
		return ErrValidation.WithDetail(err.Error()).WithCause(err)
	case repository.IsInvalidInput(err):
		return ErrBadRequest.WithDetail(err.Error()).WithCause(err)

	case stderrors.Is(err, tenantsql.ErrInvalidAudience):
		return ErrAudienceInvalid.WithCause(err)
	case repository.IsNoDatabase(err), stderrors.Is(err, tenantsql.ErrManagerClosed):
		return ErrTenantUnavailable.WithCause(err)
	}
	return ErrInternalServerError.WithCause(err)
}

// WriteError escribe una respuesta HTTP basada en el error proporcionado.
// Los 5xx se loguean con la causa usando el logger del request.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := FromError(err)

	if appErr.HTTPStatus >= http.StatusInternalServerError && r != nil {
		logger.From(r.Context()).Error("request failed",
			logger.Status(appErr.HTTPStatus),
			logger.String("code", appErr.Code),
			logger.Err(appErr.Err),
		)
	}

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
		Fields:  appErr.Fields,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
