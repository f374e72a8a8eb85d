package domain

import "time"

// Part is a stocked catalog item. StockTotal is a derived aggregate: it always
// equals the sum of this part's warehouse_stock quantities and is rewritten
// from that sum inside every transaction that touches a stock row.
type Part struct {
	ID                     int64     `gorm:"primaryKey" json:"id,string"`
	Name                   string    `gorm:"size:128;index" json:"name"`
	PartNumber             string    `gorm:"size:64" json:"part_number"`
	ManufacturerPartNumber string    `gorm:"size:64;uniqueIndex" json:"manufacturer_part_number"`
	Description            string    `gorm:"type:text" json:"description"`
	Price                  float64   `json:"price"`
	StockTotal             int       `gorm:"not null;default:0" json:"stock_total"`
	CategoryID             *int64    `gorm:"index" json:"category_id,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`

	Manufacturers []Manufacturer `gorm:"many2many:part_manufacturer" json:"manufacturers,omitempty"`
	Cars          []Car          `gorm:"many2many:part_car" json:"cars,omitempty"`
}

func (Part) TableName() string {
	return "part"
}
