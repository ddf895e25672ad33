package services

import "github.com/dropDatabas3/orgcrud/internal/domain/repository"

// Labels visibles de cada recurso.
const (
	LabelUser       = "User"
	LabelGroup      = "Group"
	LabelUserGroup  = "User to group relation"
	LabelSchool     = "School"
	LabelUserSchool = "User to school relation"
)

func nameRule[T repository.Entity](label string, name func(T) string) *uniqueRule[T] {
	return &uniqueRule[T]{
		columns: []string{"name"},
		field:   "name",
		message: label + " with this name already exists",
		current: func(e T) map[string]any { return map[string]any{"name": name(e)} },
	}
}

// NewUserService crea el service de usuarios.
func NewUserService() Service[repository.User] {
	return &crudService[repository.User]{
		label:  LabelUser,
		unique: nameRule(LabelUser, func(u repository.User) string { return u.Name }),
	}
}

// NewGroupService crea el service de grupos.
func NewGroupService() Service[repository.Group] {
	return &crudService[repository.Group]{
		label:  LabelGroup,
		unique: nameRule(LabelGroup, func(g repository.Group) string { return g.Name }),
	}
}

// NewSchoolService crea el service de escuelas.
func NewSchoolService() Service[repository.School] {
	return &crudService[repository.School]{
		label:  LabelSchool,
		unique: nameRule(LabelSchool, func(s repository.School) string { return s.Name }),
	}
}

// NewUserGroupService crea el service de la relación usuario-grupo.
func NewUserGroupService() Service[repository.UserGroup] {
	return &crudService[repository.UserGroup]{
		label: LabelUserGroup,
		unique: &uniqueRule[repository.UserGroup]{
			columns: []string{"user_id", "group_id"},
			field:   "user_id",
			message: LabelUserGroup + " already exists",
			current: func(m repository.UserGroup) map[string]any {
				return map[string]any{"user_id": m.UserID, "group_id": m.GroupID}
			},
		},
		refs: []reference{
			refTo[repository.User]("user_id", LabelUser),
			refTo[repository.Group]("group_id", LabelGroup),
		},
	}
}

// NewUserSchoolService crea el service de la relación usuario-escuela.
func NewUserSchoolService() Service[repository.UserSchool] {
	return &crudService[repository.UserSchool]{
		label: LabelUserSchool,
		unique: &uniqueRule[repository.UserSchool]{
			columns: []string{"user_id", "school_id"},
			field:   "user_id",
			message: LabelUserSchool + " already exists",
			current: func(m repository.UserSchool) map[string]any {
				return map[string]any{"user_id": m.UserID, "school_id": m.SchoolID}
			},
		},
		refs: []reference{
			refTo[repository.User]("user_id", LabelUser),
			refTo[repository.School]("school_id", LabelSchool),
		},
	}
}
