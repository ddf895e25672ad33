package auth

import "errors"

var (
	// ErrTokenMissing indica que el request no trae bearer en header ni cookie.
	ErrTokenMissing = errors.New("auth: token missing")

	// ErrTokenInvalid indica firma, formato, issuer o algoritmo inválidos.
	ErrTokenInvalid = errors.New("auth: token invalid")

	// ErrTokenExpired indica que el token expiró (fuera del leeway).
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrAudienceMissing indica que el token verificado no trae "aud".
	ErrAudienceMissing = errors.New("auth: token audience missing")

	// ErrAudienceNotAllowed indica una audiencia fuera de la allow-list o ambigua.
	ErrAudienceNotAllowed = errors.New("auth: token audience not allowed")
)

// IsAuthError reporta si err es cualquiera de los errores de autenticación.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrTokenMissing) ||
		errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrAudienceMissing) ||
		errors.Is(err, ErrAudienceNotAllowed)
}
