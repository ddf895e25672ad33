package dto

import (
	"github.com/dropDatabas3/orgcrud/internal/domain/repository"
	"github.com/dropDatabas3/orgcrud/internal/validation"
)

const webSiteMaxLen = 100

type schoolPayload struct {
	Name         *string  `json:"name"`
	AddressLine1 *string  `json:"address_line_1"`
	AddressLine2 *string  `json:"address_line_2"`
	PinCode      *int64   `json:"pin_code"`
	WebSite      *string  `json:"web_site"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	IsActive     *bool    `json:"is_active"`
}

func (p *schoolPayload) Normalize() {
	p.Name = validation.Trim(p.Name)
	p.AddressLine1 = validation.Trim(p.AddressLine1)
	p.AddressLine2 = validation.Trim(p.AddressLine2)
	p.WebSite = validation.Trim(p.WebSite)
}

func (p *schoolPayload) check(v *validation.Validator) {
	v.MaxLen("name", p.Name, nameMaxLen)
	v.MaxLen("address_line_1", p.AddressLine1, nameMaxLen)
	v.MaxLen("address_line_2", p.AddressLine2, nameMaxLen)
	v.Positive("pin_code", p.PinCode)
	v.MaxLen("web_site", p.WebSite, webSiteMaxLen)
	v.Between("latitude", p.Latitude, -90, 90)
	v.Between("longitude", p.Longitude, -180, 180)
}

func (p *schoolPayload) Fields() repository.Fields {
	f := repository.Fields{}
	putStr(f, "name", p.Name)
	putStr(f, "address_line_1", p.AddressLine1)
	putStr(f, "address_line_2", p.AddressLine2)
	putInt(f, "pin_code", p.PinCode)
	putStr(f, "web_site", p.WebSite)
	putFloat(f, "latitude", p.Latitude)
	putFloat(f, "longitude", p.Longitude)
	putBool(f, "is_active", p.IsActive)
	return f
}

// SchoolCreate es el body de POST /school/create/.
type SchoolCreate struct {
	schoolPayload
}

func (p *SchoolCreate) Validate() error {
	v := validation.New(validation.Body)
	v.Required("name", p.Name)
	p.check(v)
	return v.Err()
}

func (p *SchoolCreate) Fields() repository.Fields {
	f := p.schoolPayload.Fields()
	if p.IsActive == nil {
		f["is_active"] = true
	}
	return f
}

// SchoolUpdate es el body de PATCH /school/{id}/update/.
type SchoolUpdate struct {
	schoolPayload
}

func (p *SchoolUpdate) Validate() error {
	v := validation.New(validation.Body)
	v.NotEmpty("name", p.Name)
	p.check(v)
	return v.Err()
}
