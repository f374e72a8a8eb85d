package domain

import "time"

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Order is created atomically at checkout together with its items; the two
// are never partially persisted.
type Order struct {
	ID              int64      `gorm:"primaryKey" json:"id,string"`
	OrderNumber     string     `gorm:"size:36;uniqueIndex" json:"order_number"`
	UserID          int64      `gorm:"index" json:"user_id,string"`
	Status          string     `gorm:"size:20;index;default:'pending'" json:"status"`
	ShippingAddress string     `gorm:"size:255" json:"shipping_address"`
	TotalAmount     float64    `gorm:"not null;default:0" json:"total_amount"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem snapshots part, quantity and unit price at the instant of
// purchase. Immutable after checkout commits.
type OrderItem struct {
	ID        int64     `gorm:"primaryKey" json:"id,string"`
	OrderID   int64     `gorm:"index" json:"order_id,string"`
	PartID    int64     `gorm:"index" json:"part_id,string"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice float64   `gorm:"not null" json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_item"
}
