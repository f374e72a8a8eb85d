package domain

import "time"

// Category forms a forest over parent_id. No node may be its own ancestor;
// the hierarchy service enforces that on every parent change.
type Category struct {
	ID        int64     `gorm:"primaryKey" json:"id,string"`
	Name      string    `gorm:"size:64;uniqueIndex" json:"name"`
	ParentID  *int64    `gorm:"index" json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Subcategories is assembled by the hierarchy service, not by gorm.
	Subcategories []*Category `gorm:"-" json:"subcategories,omitempty"`
}

func (Category) TableName() string {
	return "category"
}
