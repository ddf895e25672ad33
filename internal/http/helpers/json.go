package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	httperrors "github.com/dropDatabas3/orgcrud/internal/http/errors"
	"github.com/dropDatabas3/orgcrud/internal/validation"
)

// DefaultMaxBody limita el body cuando no se configura otro valor.
const DefaultMaxBody int64 = 1 << 20

// ReadJSON decodifica el body en v. Valida Content-Type, limita el tamaño y
// rechaza campos desconocidos. Los errores de tipo se devuelven como 422 con loc.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mt != "application/json" {
		return httperrors.ErrUnsupportedMediaType
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBody
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return decodeError(err)
	}
	if dec.More() {
		return httperrors.ErrInvalidJSON.WithDetail("body must contain a single JSON object")
	}
	return nil
}

func decodeError(err error) error {
	var (
		typeErr *json.UnmarshalTypeError
		maxErr  *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return httperrors.ErrInvalidJSON.WithDetail("empty body").WithCause(err)
	case errors.As(err, &maxErr):
		return httperrors.ErrBodyTooLarge.WithCause(err)
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return validation.Field(validation.Body, typeErr.Field, "type_error",
			"Input should be a valid "+typeErr.Type.String(), nil)
	default:
		return httperrors.ErrInvalidJSON.WithDetail(err.Error()).WithCause(err)
	}
}

// WriteJSON escribe una respuesta JSON estándar.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
