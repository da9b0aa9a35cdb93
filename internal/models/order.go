package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus int

const (
	OrderStatusCancelled OrderStatus = -1
	OrderStatusPending   OrderStatus = 0
	OrderStatusLocked    OrderStatus = 1
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPending:
		return "pending"
	case OrderStatusLocked:
		return "locked"
	case OrderStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	return s == OrderStatusPending || s == OrderStatusLocked || s == OrderStatusCancelled
}

// Modifiable reports whether items of an order in this status may change.
func (s OrderStatus) Modifiable() bool {
	return s == OrderStatusPending
}

// Order is a customer order. FinalPrice always equals the sum of its items'
// Quantity x PriceOnMoment.
type Order struct {
	ID         string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string      `json:"user_id" gorm:"index;type:varchar(36);not null"`
	User       *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	FinalPrice Money       `json:"final_price" gorm:"type:decimal(12,2);not null"`
	Status     OrderStatus `json:"status" gorm:"not null"`
	Items      []OrderItem `json:"order_items" gorm:"foreignKey:OrderID"`
	CreatedAt  time.Time   `json:"created_at" gorm:"index"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// OrderItem is one line of an order. PriceOnMoment is the product price read
// when the line was written and never changes afterwards. Position keeps the
// items in request order.
type OrderItem struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID       string    `json:"order_id" gorm:"index;type:varchar(36);not null"`
	ProductID     string    `json:"product_id" gorm:"index;type:varchar(36);not null"`
	Product       *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity      int       `json:"quantity" gorm:"not null"`
	PriceOnMoment Money     `json:"price_on_moment" gorm:"type:decimal(12,2);not null"`
	Position      int       `json:"position" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at"`
}

// Subtotal is Quantity x PriceOnMoment.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceOnMoment.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderLine is a requested (product, quantity) pair for create and update.
type OrderLine struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// OrderEvent is published after an order mutation commits.
type OrderEvent struct {
	Type       string      `json:"type"`
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	Status     OrderStatus `json:"status"`
	FinalPrice Money       `json:"final_price"`
	ItemCount  int         `json:"item_count"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Order event types.
const (
	OrderEventCreated       = "order.created"
	OrderEventUpdated       = "order.updated"
	OrderEventDeleted       = "order.deleted"
	OrderEventStatusChanged = "order.status_changed"
)
