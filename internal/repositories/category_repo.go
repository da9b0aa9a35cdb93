package repositories

import (
	"context"

	"orderdesk/internal/models"
)

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
	// CountProducts counts products referencing the category, soft-deleted
	// ones included.
	CountProducts(ctx context.Context, id string) (int64, error)
}
