// Package dto contiene los payloads de entrada y los sobres de respuesta de la API.
package dto

import "github.com/dropDatabas3/orgcrud/internal/domain/repository"

// Input es un payload de create/update.
// Normalize recorta strings, Validate acumula errores de campo y Fields
// devuelve sólo los campos presentes, listos para el repositorio.
type Input interface {
	Normalize()
	Validate() error
	Fields() repository.Fields
}

// ListResponse es la respuesta de los listados.
type ListResponse[T any] struct {
	Count int64 `json:"count"`
	Limit int   `json:"limit"`
	Page  int   `json:"page"`
	Rows  []T   `json:"rows"`
}

// MessageResponse es la respuesta de create/update/delete.
type MessageResponse[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// putStr agrega el campo si el puntero no es nil.
func putStr(f repository.Fields, col string, v *string) {
	if v != nil {
		f[col] = *v
	}
}

func putInt(f repository.Fields, col string, v *int64) {
	if v != nil {
		f[col] = *v
	}
}

func putFloat(f repository.Fields, col string, v *float64) {
	if v != nil {
		f[col] = *v
	}
}

func putBool(f repository.Fields, col string, v *bool) {
	if v != nil {
		f[col] = *v
	}
}
