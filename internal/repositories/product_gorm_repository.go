package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"orderdesk/internal/apperror"
	"orderdesk/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// List returns one page of products with their category, ordered by name.
func (r *GORMProductRepository) List(ctx context.Context, offset, limit int) ([]models.Product, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, 0, apperror.Internal("failed to count products", err)
	}

	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, apperror.Internal("failed to list products", err)
	}
	return products, total, nil
}

// GetByID retrieves a single product with its category.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, apperror.NotFound("product with ID %s not found", id), "get product")
	}
	return &product, nil
}

// GetByName looks the name up among live and soft-deleted products.
func (r *GORMProductRepository) GetByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Unscoped().First(&product, "name = ?", name).Error
	if err != nil {
		return nil, translate(err, apperror.NotFound("product named %s not found", name), "get product by name")
	}
	return &product, nil
}

// Create inserts a new product, assigning an ID when missing.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	err := r.db.WithContext(ctx).Omit("Category").Create(product).Error
	return translate(err, nil, "create product")
}

// Update writes every column of an existing, non-deleted product.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":        product.Name,
			"price":       product.Price,
			"quantity":    product.Quantity,
			"category_id": product.CategoryID,
		})
	if res.Error != nil {
		return translate(res.Error, nil, "update product")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("product with ID %s not found for update", product.ID)
	}
	return nil
}

// Delete soft-deletes a product.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return apperror.Internal("failed to delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("product with ID %s not found for deletion", id)
	}
	return nil
}

// Restore clears the tombstone of a soft-deleted product.
func (r *GORMProductRepository) Restore(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Product{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if res.Error != nil {
		return apperror.Internal("failed to restore product", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("deleted product with ID %s not found", id)
	}
	return nil
}

// AdjustStock applies delta with a conditional update so concurrent
// decrements can never take quantity below zero.
func (r *GORMProductRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	q := r.db.WithContext(ctx).Unscoped().Model(&models.Product{}).Where("id = ?", id)
	if delta < 0 {
		q = q.Where("quantity >= ?", -delta)
	}
	res := q.Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return apperror.Internal("failed to adjust product stock", res.Error)
	}
	if res.RowsAffected == 0 {
		if delta < 0 {
			return apperror.Conflict(apperror.CodeInsufficientStock, "insufficient stock for product %s", id)
		}
		return apperror.NotFound("product with ID %s not found", id)
	}
	return nil
}
