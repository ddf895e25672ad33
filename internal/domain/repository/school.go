package repository

import "time"

// School representa una institución educativa.
type School struct {
	ID           int64      `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	AddressLine1 *string    `db:"address_line_1" json:"address_line_1"`
	AddressLine2 *string    `db:"address_line_2" json:"address_line_2"`
	PinCode      *int64     `db:"pin_code" json:"pin_code"`
	WebSite      *string    `db:"web_site" json:"web_site"`
	Latitude     *float64   `db:"latitude" json:"latitude"`
	Longitude    *float64   `db:"longitude" json:"longitude"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	ModifiedAt   *time.Time `db:"modified_at" json:"modified_at"`
}

var schoolSchema = Schema{
	Table: "schools",
	Columns: []string{
		"id", "name", "address_line_1", "address_line_2", "pin_code",
		"web_site", "latitude", "longitude", "is_active",
		"created_at", "modified_at",
	},
	Writable: []string{
		"name", "address_line_1", "address_line_2", "pin_code",
		"web_site", "latitude", "longitude", "is_active",
	},
	Filterable: []string{"name", "is_active", "pin_code"},
	Timestamps: true,
}

func (School) Schema() Schema { return schoolSchema }
func (s School) GetID() int64 { return s.ID }
