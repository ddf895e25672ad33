// Package middlewares contiene los decoradores HTTP del servicio: request id,
// logging, recover, CORS, rate limiting y resolución del tenant.
package middlewares
