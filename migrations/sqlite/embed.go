// Package sqlite embeds SQL migration files for SQLite tenant databases
// (local development and tests).
package sqlite

import "embed"

// TenantFS contains the tenant migrations for per-tenant SQLite files.
//
//go:embed tenant/*.sql
var TenantFS embed.FS

// TenantDir is the directory within TenantFS where migrations live.
const TenantDir = "tenant"
