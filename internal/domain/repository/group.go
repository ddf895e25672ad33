package repository

import "time"

// Group agrupa usuarios.
type Group struct {
	ID         int64      `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ModifiedAt *time.Time `db:"modified_at" json:"modified_at"`
}

var groupSchema = Schema{
	Table:      "groups",
	Columns:    []string{"id", "name", "created_at", "modified_at"},
	Writable:   []string{"name"},
	Filterable: []string{"name"},
	Timestamps: true,
}

func (Group) Schema() Schema { return groupSchema }
func (g Group) GetID() int64 { return g.ID }
