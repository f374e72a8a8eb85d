package domain

import "time"

// CartLine is a pending pre-purchase (user, part, quantity) record. Repeat
// adds merge into the existing line; the price stays live until checkout
// snapshots it into an order item.
type CartLine struct {
	ID        int64     `gorm:"primaryKey" json:"id,string"`
	UserID    int64     `gorm:"uniqueIndex:uix_cart_user_part,priority:1" json:"user_id,string"`
	PartID    int64     `gorm:"uniqueIndex:uix_cart_user_part,priority:2" json:"part_id,string"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CartLine) TableName() string {
	return "cart_line"
}
