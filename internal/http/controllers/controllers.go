// Package controllers traduce requests HTTP a llamadas de services y arma las
// respuestas JSON de cada recurso.
package controllers

import (
	"github.com/dropDatabas3/orgcrud/internal/domain/repository"
	"github.com/dropDatabas3/orgcrud/internal/http/dto"
	"github.com/dropDatabas3/orgcrud/internal/http/helpers"
	"github.com/dropDatabas3/orgcrud/internal/http/services"
)

// Controllers agrupa los controllers de todos los recursos.
type Controllers struct {
	Users       *CRUDController[repository.User]
	Groups      *CRUDController[repository.Group]
	UserGroups  *CRUDController[repository.UserGroup]
	Schools     *CRUDController[repository.School]
	UserSchools *CRUDController[repository.UserSchool]
}

// New crea los controllers inyectando los services.
func New(s services.Services, opts Options) *Controllers {
	return &Controllers{
		Users: NewCRUDController(s.Users,
			func() dto.Input { return &dto.UserCreate{} },
			func() dto.Input { return &dto.UserUpdate{} },
			map[string]helpers.Kind{"is_active": helpers.KindBool},
			opts,
		),
		Groups: NewCRUDController(s.Groups,
			func() dto.Input { return &dto.GroupCreate{} },
			func() dto.Input { return &dto.GroupUpdate{} },
			nil,
			opts,
		),
		UserGroups: NewCRUDController(s.UserGroups,
			func() dto.Input { return &dto.UserGroupCreate{} },
			func() dto.Input { return &dto.UserGroupUpdate{} },
			map[string]helpers.Kind{"user_id": helpers.KindInt, "group_id": helpers.KindInt},
			opts,
		),
		Schools: NewCRUDController(s.Schools,
			func() dto.Input { return &dto.SchoolCreate{} },
			func() dto.Input { return &dto.SchoolUpdate{} },
			map[string]helpers.Kind{"is_active": helpers.KindBool, "pin_code": helpers.KindInt},
			opts,
		),
		UserSchools: NewCRUDController(s.UserSchools,
			func() dto.Input { return &dto.UserSchoolCreate{} },
			func() dto.Input { return &dto.UserSchoolUpdate{} },
			map[string]helpers.Kind{"user_id": helpers.KindInt, "school_id": helpers.KindInt, "is_active": helpers.KindBool},
			opts,
		),
	}
}
