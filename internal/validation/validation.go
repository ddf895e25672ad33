// Package validation acumula errores de campo con la forma
// {loc, msg, type, input} que devuelve la API en los 422.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dropDatabas3/orgcrud/internal/domain/types"
)

// Secciones de loc.
const (
	Body  = "body"
	Query = "query"
	Path  = "path"
)

// FieldError describe un campo inválido.
type FieldError struct {
	Loc   []string `json:"loc"`
	Msg   string   `json:"msg"`
	Type  string   `json:"type"`
	Input any      `json:"input,omitempty"`
}

// Errors es una lista de errores de campo. Implementa error.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation: no errors"
	}
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(fe.Loc, "."), fe.Msg))
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Field construye un Errors de un solo elemento.
func Field(section, field, typ, msg string, input any) Errors {
	return Errors{{Loc: []string{section, field}, Msg: msg, Type: typ, Input: input}}
}

// Email: local@dominio.tld, sin espacios.
var emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?)+$`)

// ValidEmail reporta si s tiene forma de email.
func ValidEmail(s string) bool {
	return len(s) <= 254 && emailRe.MatchString(s)
}

// Trim recorta espacios; un puntero nil queda nil.
func Trim(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	return &s
}

// Validator acumula errores para una sección (body, query).
type Validator struct {
	section string
	errs    Errors
}

// New crea un Validator para la sección dada.
func New(section string) *Validator { return &Validator{section: section} }

// Add registra un error sobre field.
func (v *Validator) Add(field, typ, msg string, input any) {
	v.errs = append(v.errs, FieldError{Loc: []string{v.section, field}, Msg: msg, Type: typ, Input: input})
}

// Required exige un string presente y no vacío.
func (v *Validator) Required(field string, val *string) bool {
	if val == nil {
		v.Add(field, "missing", "Field required", nil)
		return false
	}
	if *val == "" {
		v.Add(field, "string_too_short", "String should have at least 1 character", *val)
		return false
	}
	return true
}

// MaxLen limita la cantidad de caracteres.
func (v *Validator) MaxLen(field string, val *string, n int) {
	if val != nil && utf8.RuneCountInString(*val) > n {
		v.Add(field, "string_too_long", fmt.Sprintf("String should have at most %d characters", n), *val)
	}
}

// NotEmpty rechaza strings presentes pero vacíos.
func (v *Validator) NotEmpty(field string, val *string) {
	if val != nil && *val == "" {
		v.Add(field, "string_too_short", "String should have at least 1 character", *val)
	}
}

// Email valida formato y largo máximo.
func (v *Validator) Email(field string, val *string, maxLen int) {
	if val == nil {
		return
	}
	if utf8.RuneCountInString(*val) > maxLen {
		v.Add(field, "string_too_long", fmt.Sprintf("String should have at most %d characters", maxLen), *val)
		return
	}
	if !ValidEmail(*val) {
		v.Add(field, "value_error", "value is not a valid email address", *val)
	}
}

// Positive exige un entero > 0.
func (v *Validator) Positive(field string, val *int64) {
	if val != nil && *val <= 0 {
		v.Add(field, "greater_than", "Input should be greater than 0", *val)
	}
}

// RequiredID exige un entero presente y > 0.
func (v *Validator) RequiredID(field string, val *int64) bool {
	if val == nil {
		v.Add(field, "missing", "Field required", nil)
		return false
	}
	v.Positive(field, val)
	return *val > 0
}

// Date exige formato YYYY-MM-DD.
func (v *Validator) Date(field string, val *string) {
	if val == nil {
		return
	}
	if _, err := types.ParseDate(*val); err != nil {
		v.Add(field, "date_from_datetime_parsing", "Input should be a valid date in the format YYYY-MM-DD", *val)
	}
}

// Between exige min <= val <= max.
func (v *Validator) Between(field string, val *float64, min, max float64) {
	if val == nil {
		return
	}
	switch {
	case *val < min:
		v.Add(field, "greater_than_equal", fmt.Sprintf("Input should be greater than or equal to %g", min), *val)
	case *val > max:
		v.Add(field, "less_than_equal", fmt.Sprintf("Input should be less than or equal to %g", max), *val)
	}
}

// Errors devuelve los errores acumulados.
func (v *Validator) Errors() Errors { return v.errs }

// Err devuelve nil si no hubo errores.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}
