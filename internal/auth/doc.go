// Package auth verifica el token de identidad de cada request y resuelve la
// audiencia que identifica al tenant.
//
// Flujo: Resolver extrae el bearer del header o cookie configurados, lo pasa
// al Verifier (Google ID token vía JWKS, o clave local HS/RS) y toma la
// audiencia del claim "aud". Cualquier falla cierra el acceso. Con la
// multi-tenencia apagada el Resolver devuelve la audiencia fija sin verificar.
package auth
