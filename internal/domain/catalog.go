package domain

import "time"

// Manufacturer is a read-only catalog lookup used to validate part references.
type Manufacturer struct {
	ID        int64     `gorm:"primaryKey" json:"id,string"`
	Name      string    `gorm:"size:128;uniqueIndex" json:"name"`
	Country   string    `gorm:"size:64" json:"country"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Manufacturer) TableName() string {
	return "manufacturer"
}

// Car is a read-only catalog lookup used to validate part compatibility links.
type Car struct {
	ID        int64     `gorm:"primaryKey" json:"id,string"`
	Brand     string    `gorm:"size:64;index" json:"brand"`
	Model     string    `gorm:"size:64" json:"model"`
	Year      int       `json:"year"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Car) TableName() string {
	return "car"
}
