package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica que la fila no puede borrarse porque otra la referencia.
	ErrConflict = errors.New("conflict")

	// ErrDuplicate indica una violación de unicidad (nombre o par de asociación).
	ErrDuplicate = errors.New("duplicate")

	// ErrInvalidReference indica que una FK apunta a una fila inexistente.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrInvalidInput indica que los datos de entrada son inválidos
	// (columna desconocida, orden inválido, campos vacíos).
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoDatabase indica que no hay base de datos disponible para el tenant.
	ErrNoDatabase = errors.New("no database configured")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict verifica si el error es ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsDuplicate verifica si el error es ErrDuplicate.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsInvalidReference verifica si el error es ErrInvalidReference.
func IsInvalidReference(err error) bool {
	return errors.Is(err, ErrInvalidReference)
}

// IsInvalidInput verifica si el error es ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNoDatabase verifica si el error es ErrNoDatabase.
func IsNoDatabase(err error) bool {
	return errors.Is(err, ErrNoDatabase)
}
