package repositories

import (
	"context"

	"orderdesk/internal/models"
)

// ProductRepository defines the interface for product data access. Reads
// exclude soft-deleted products unless stated otherwise.
type ProductRepository interface {
	List(ctx context.Context, offset, limit int) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// GetByName also finds soft-deleted products so names stay unique
	// across restores.
	GetByName(ctx context.Context, name string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	// AdjustStock adds delta to the product quantity. A negative delta fails
	// with an insufficient stock error when it would drive quantity below 0.
	AdjustStock(ctx context.Context, id string, delta int) error
}
