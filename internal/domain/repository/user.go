package repository

import (
	"time"

	"github.com/dropDatabas3/orgcrud/internal/domain/types"
)

// User representa una persona del directorio.
type User struct {
	ID            int64       `db:"id" json:"id"`
	Name          string      `db:"name" json:"name"`
	FirstName     *string     `db:"first_name" json:"first_name"`
	MiddleName    *string     `db:"middle_name" json:"middle_name"`
	LastName      *string     `db:"last_name" json:"last_name"`
	DateOfBirth   *types.Date `db:"date_of_birth" json:"date_of_birth"`
	DateOfJoin    *types.Date `db:"date_of_join" json:"date_of_join"`
	DateOfLeft    *types.Date `db:"date_of_left" json:"date_of_left"`
	BusinessEmail *string     `db:"business_email" json:"business_email"`
	PersonalEmail *string     `db:"personal_email" json:"personal_email"`
	IsActive      bool        `db:"is_active" json:"is_active"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	ModifiedAt    *time.Time  `db:"modified_at" json:"modified_at"`
}

var userSchema = Schema{
	Table: "users",
	Columns: []string{
		"id", "name", "first_name", "middle_name", "last_name",
		"date_of_birth", "date_of_join", "date_of_left",
		"business_email", "personal_email", "is_active",
		"created_at", "modified_at",
	},
	Writable: []string{
		"name", "first_name", "middle_name", "last_name",
		"date_of_birth", "date_of_join", "date_of_left",
		"business_email", "personal_email", "is_active",
	},
	Filterable: []string{"name", "is_active", "business_email", "personal_email"},
	Timestamps: true,
}

func (User) Schema() Schema { return userSchema }
func (u User) GetID() int64 { return u.ID }
