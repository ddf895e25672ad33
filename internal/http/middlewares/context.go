package middlewares

import (
	"context"

	"github.com/dropDatabas3/orgcrud/internal/auth"
	"github.com/dropDatabas3/orgcrud/internal/store"
)

// =================================================================================
// CONTEXT KEYS
// =================================================================================

type ctxKey string

const (
	// ctxSessionKey guarda la sesión de base del tenant
	ctxSessionKey ctxKey = "session"
	// ctxResolutionKey guarda la audiencia y claims del request
	ctxResolutionKey ctxKey = "resolution"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// =================================================================================
// CONTEXT SETTERS
// =================================================================================

// WithSession inyecta la sesión del tenant en el contexto.
func WithSession(ctx context.Context, sess *store.Session) context.Context {
	return context.WithValue(ctx, ctxSessionKey, sess)
}

// WithResolution inyecta el resultado de resolver el tenant.
func WithResolution(ctx context.Context, res auth.Resolution) context.Context {
	return context.WithValue(ctx, ctxResolutionKey, res)
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// =================================================================================
// CONTEXT GETTERS
// =================================================================================

// GetSession obtiene la sesión del tenant. Retorna nil fuera del middleware de tenant.
func GetSession(ctx context.Context) *store.Session {
	if s, ok := ctx.Value(ctxSessionKey).(*store.Session); ok {
		return s
	}
	return nil
}

// MustGetSession obtiene la sesión o hace panic.
// Usar solo en rutas donde el middleware de tenant SIEMPRE se aplica.
func MustGetSession(ctx context.Context) *store.Session {
	s := GetSession(ctx)
	if s == nil {
		panic("middlewares: no tenant session in context")
	}
	return s
}

// GetResolution devuelve la audiencia resuelta; ok=false si no hubo resolución.
func GetResolution(ctx context.Context) (auth.Resolution, bool) {
	res, ok := ctx.Value(ctxResolutionKey).(auth.Resolution)
	return res, ok
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return s
	}
	return ""
}
