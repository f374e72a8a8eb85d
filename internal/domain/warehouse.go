package domain

import "time"

// Warehouse is an independent storage location; it carries no stock figure of
// its own, only warehouse_stock rows do.
type Warehouse struct {
	ID        int64     `gorm:"primaryKey" json:"id,string"`
	Name      string    `gorm:"size:128;uniqueIndex:uix_warehouse_name_loc,priority:1" json:"name"`
	Location  string    `gorm:"size:255;uniqueIndex:uix_warehouse_name_loc,priority:2" json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Warehouse) TableName() string {
	return "warehouse"
}

// WarehouseStock is the (warehouse, part) stock row. Quantity never goes
// negative; the row is created on first addition and removed only by an
// explicit remove operation.
type WarehouseStock struct {
	WarehouseID int64     `gorm:"primaryKey;autoIncrement:false" json:"warehouse_id,string"`
	PartID      int64     `gorm:"primaryKey;autoIncrement:false;index" json:"part_id,string"`
	Quantity    int       `gorm:"not null;default:0" json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (WarehouseStock) TableName() string {
	return "warehouse_stock"
}
