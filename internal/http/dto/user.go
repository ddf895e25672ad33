package dto

import (
	"github.com/dropDatabas3/orgcrud/internal/domain/repository"
	"github.com/dropDatabas3/orgcrud/internal/domain/types"
	"github.com/dropDatabas3/orgcrud/internal/validation"
)

const (
	nameMaxLen  = 254
	emailMaxLen = 100
)

type userPayload struct {
	Name          *string `json:"name"`
	FirstName     *string `json:"first_name"`
	MiddleName    *string `json:"middle_name"`
	LastName      *string `json:"last_name"`
	DateOfBirth   *string `json:"date_of_birth"`
	DateOfJoin    *string `json:"date_of_join"`
	DateOfLeft    *string `json:"date_of_left"`
	BusinessEmail *string `json:"business_email"`
	PersonalEmail *string `json:"personal_email"`
	IsActive      *bool   `json:"is_active"`
}

func (p *userPayload) Normalize() {
	p.Name = validation.Trim(p.Name)
	p.FirstName = validation.Trim(p.FirstName)
	p.MiddleName = validation.Trim(p.MiddleName)
	p.LastName = validation.Trim(p.LastName)
	p.DateOfBirth = validation.Trim(p.DateOfBirth)
	p.DateOfJoin = validation.Trim(p.DateOfJoin)
	p.DateOfLeft = validation.Trim(p.DateOfLeft)
	p.BusinessEmail = validation.Trim(p.BusinessEmail)
	p.PersonalEmail = validation.Trim(p.PersonalEmail)
}

func (p *userPayload) check(v *validation.Validator) {
	v.MaxLen("name", p.Name, nameMaxLen)
	v.MaxLen("first_name", p.FirstName, nameMaxLen)
	v.MaxLen("middle_name", p.MiddleName, nameMaxLen)
	v.MaxLen("last_name", p.LastName, nameMaxLen)
	v.Date("date_of_birth", p.DateOfBirth)
	v.Date("date_of_join", p.DateOfJoin)
	v.Date("date_of_left", p.DateOfLeft)
	v.Email("business_email", p.BusinessEmail, emailMaxLen)
	v.Email("personal_email", p.PersonalEmail, emailMaxLen)
}

func (p *userPayload) Fields() repository.Fields {
	f := repository.Fields{}
	putStr(f, "name", p.Name)
	putStr(f, "first_name", p.FirstName)
	putStr(f, "middle_name", p.MiddleName)
	putStr(f, "last_name", p.LastName)
	putDate(f, "date_of_birth", p.DateOfBirth)
	putDate(f, "date_of_join", p.DateOfJoin)
	putDate(f, "date_of_left", p.DateOfLeft)
	putStr(f, "business_email", p.BusinessEmail)
	putStr(f, "personal_email", p.PersonalEmail)
	putBool(f, "is_active", p.IsActive)
	return f
}

// putDate asume que el valor ya pasó por Validate.
func putDate(f repository.Fields, col string, v *string) {
	if v == nil {
		return
	}
	if d, err := types.ParseDate(*v); err == nil {
		f[col] = d
	}
}

// UserCreate es el body de POST /user/create/.
type UserCreate struct {
	userPayload
}

func (p *UserCreate) Validate() error {
	v := validation.New(validation.Body)
	v.Required("name", p.Name)
	p.check(v)
	return v.Err()
}

func (p *UserCreate) Fields() repository.Fields {
	f := p.userPayload.Fields()
	if p.IsActive == nil {
		f["is_active"] = true
	}
	return f
}

// UserUpdate es el body de PATCH /user/{id}/update/. Todos los campos son opcionales.
type UserUpdate struct {
	userPayload
}

func (p *UserUpdate) Validate() error {
	v := validation.New(validation.Body)
	v.NotEmpty("name", p.Name)
	p.check(v)
	return v.Err()
}
