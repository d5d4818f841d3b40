package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Category est un nœud de taxonomie. ParentID nil = catégorie racine.
type Category struct {
	ID          gocql.UUID  `json:"id" db:"category_id"`
	Name        string      `json:"name" db:"name" validate:"required,max=100"`
	Slug        string      `json:"slug" db:"slug"`
	Description string      `json:"description,omitempty" db:"description" validate:"max=500"`
	ImageURL    string      `json:"image_url,omitempty" db:"image_url"`
	ParentID    *gocql.UUID `json:"parent_id,omitempty" db:"parent_id"`
	SortOrder   int         `json:"sort_order" db:"sort_order"`
	IsActive    bool        `json:"is_active" db:"is_active"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// IsRoot indique si la catégorie est une racine de l'arbre.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}
