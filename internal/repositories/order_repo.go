package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"orderdesk/internal/models"
)

// OrderRepository defines the interface for order data access. Orders are
// returned as full aggregates: user, items, item product (soft-deleted
// included) and product category.
type OrderRepository interface {
	// List returns orders newest first. An empty userID lists every user.
	List(ctx context.Context, userID string, offset, limit int) ([]models.Order, int64, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	DeleteItems(ctx context.Context, orderID string) error
	UpdateFinalPrice(ctx context.Context, id string, finalPrice decimal.Decimal) error
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	Delete(ctx context.Context, id string) error
}
