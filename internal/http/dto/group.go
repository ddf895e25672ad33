package dto

import (
	"github.com/dropDatabas3/orgcrud/internal/domain/repository"
	"github.com/dropDatabas3/orgcrud/internal/validation"
)

// GroupCreate es el body de POST /group/create/.
type GroupCreate struct {
	Name *string `json:"name"`
}

func (p *GroupCreate) Normalize() { p.Name = validation.Trim(p.Name) }

func (p *GroupCreate) Validate() error {
	v := validation.New(validation.Body)
	if v.Required("name", p.Name) {
		v.MaxLen("name", p.Name, nameMaxLen)
	}
	return v.Err()
}

func (p *GroupCreate) Fields() repository.Fields {
	f := repository.Fields{}
	putStr(f, "name", p.Name)
	return f
}

// GroupUpdate es el body de PATCH /group/{id}/update/.
type GroupUpdate struct {
	GroupCreate
}

func (p *GroupUpdate) Validate() error {
	v := validation.New(validation.Body)
	v.NotEmpty("name", p.Name)
	v.MaxLen("name", p.Name, nameMaxLen)
	return v.Err()
}
