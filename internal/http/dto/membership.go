package dto

import (
	"github.com/dropDatabas3/orgcrud/internal/domain/repository"
	"github.com/dropDatabas3/orgcrud/internal/validation"
)

// UserGroupCreate es el body de POST /user-to-group/create/.
type UserGroupCreate struct {
	UserID  *int64 `json:"user_id"`
	GroupID *int64 `json:"group_id"`
}

func (p *UserGroupCreate) Normalize() {}

func (p *UserGroupCreate) Validate() error {
	v := validation.New(validation.Body)
	v.RequiredID("user_id", p.UserID)
	v.RequiredID("group_id", p.GroupID)
	return v.Err()
}

func (p *UserGroupCreate) Fields() repository.Fields {
	f := repository.Fields{}
	putInt(f, "user_id", p.UserID)
	putInt(f, "group_id", p.GroupID)
	return f
}

// UserGroupUpdate es el body de PATCH /user-to-group/{id}/update/.
type UserGroupUpdate struct {
	UserGroupCreate
}

func (p *UserGroupUpdate) Validate() error {
	v := validation.New(validation.Body)
	v.Positive("user_id", p.UserID)
	v.Positive("group_id", p.GroupID)
	return v.Err()
}

// UserSchoolCreate es el body de POST /user-to-school/create/.
type UserSchoolCreate struct {
	UserID   *int64 `json:"user_id"`
	SchoolID *int64 `json:"school_id"`
	IsActive *bool  `json:"is_active"`
}

func (p *UserSchoolCreate) Normalize() {}

func (p *UserSchoolCreate) Validate() error {
	v := validation.New(validation.Body)
	v.RequiredID("user_id", p.UserID)
	v.RequiredID("school_id", p.SchoolID)
	return v.Err()
}

func (p *UserSchoolCreate) Fields() repository.Fields {
	f := repository.Fields{}
	putInt(f, "user_id", p.UserID)
	putInt(f, "school_id", p.SchoolID)
	putBool(f, "is_active", p.IsActive)
	if p.IsActive == nil {
		f["is_active"] = true
	}
	return f
}

// UserSchoolUpdate es el body de PATCH /user-to-school/{id}/update/.
type UserSchoolUpdate struct {
	UserID   *int64 `json:"user_id"`
	SchoolID *int64 `json:"school_id"`
	IsActive *bool  `json:"is_active"`
}

func (p *UserSchoolUpdate) Normalize() {}

func (p *UserSchoolUpdate) Validate() error {
	v := validation.New(validation.Body)
	v.Positive("user_id", p.UserID)
	v.Positive("school_id", p.SchoolID)
	return v.Err()
}

func (p *UserSchoolUpdate) Fields() repository.Fields {
	f := repository.Fields{}
	putInt(f, "user_id", p.UserID)
	putInt(f, "school_id", p.SchoolID)
	putBool(f, "is_active", p.IsActive)
	return f
}
