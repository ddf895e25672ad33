// Package services contiene la lógica de cada recurso: chequeos de unicidad
// y de referencias antes de escribir, y la traducción de violaciones de
// constraint a errores de campo.
package services

import "github.com/dropDatabas3/orgcrud/internal/domain/repository"

// Services agrupa los services de todos los recursos.
type Services struct {
	Users       Service[repository.User]
	Groups      Service[repository.Group]
	UserGroups  Service[repository.UserGroup]
	Schools     Service[repository.School]
	UserSchools Service[repository.UserSchool]
}

// NewServices crea el agregador de services.
func NewServices() Services {
	return Services{
		Users:       NewUserService(),
		Groups:      NewGroupService(),
		UserGroups:  NewUserGroupService(),
		Schools:     NewSchoolService(),
		UserSchools: NewUserSchoolService(),
	}
}
