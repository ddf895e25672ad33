// Package repository define las entidades del directorio organizacional y el
// contrato genérico de repositorio que las persiste.
//
// El contrato es independiente del motor (PostgreSQL, MySQL, SQLite). La
// única implementación vive en internal/store y se instancia por sesión de
// request, de modo que cada operación corre contra la base del tenant.
//
// Arquitectura:
//
//	┌─────────────────────────────────────────────────────┐
//	│           Controllers / Services                    │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│   domain/repository  Repository[T Entity]           │
//	│   User, Group, School, UserGroup, UserSchool        │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│   store.Repository[T]  (squirrel + sqlx)            │
//	│   postgres │ mysql │ sqlite                         │
//	└─────────────────────────────────────────────────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Los nombres de columna se validan contra el Schema de la entidad
//   - Errores de dominio están en errors.go
package repository
