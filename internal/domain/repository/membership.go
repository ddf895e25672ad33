package repository

// UserGroup asocia un usuario a un grupo. El par (user_id, group_id) es único.
type UserGroup struct {
	ID      int64 `db:"id" json:"id"`
	UserID  int64 `db:"user_id" json:"user_id"`
	GroupID int64 `db:"group_id" json:"group_id"`
}

var userGroupSchema = Schema{
	Table:      "user_group",
	Columns:    []string{"id", "user_id", "group_id"},
	Writable:   []string{"user_id", "group_id"},
	Filterable: []string{"user_id", "group_id"},
}

func (UserGroup) Schema() Schema { return userGroupSchema }
func (m UserGroup) GetID() int64 { return m.ID }

// UserSchool asocia un usuario a una escuela. El par (user_id, school_id) es único.
type UserSchool struct {
	ID       int64 `db:"id" json:"id"`
	UserID   int64 `db:"user_id" json:"user_id"`
	SchoolID int64 `db:"school_id" json:"school_id"`
	IsActive bool  `db:"is_active" json:"is_active"`
}

var userSchoolSchema = Schema{
	Table:      "user_school",
	Columns:    []string{"id", "user_id", "school_id", "is_active"},
	Writable:   []string{"user_id", "school_id", "is_active"},
	Filterable: []string{"user_id", "school_id", "is_active"},
}

func (UserSchool) Schema() Schema { return userSchoolSchema }
func (m UserSchool) GetID() int64 { return m.ID }
