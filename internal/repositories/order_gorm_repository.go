package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"orderdesk/internal/apperror"
	"orderdesk/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// withAggregate preloads everything an order response carries. Products are
// loaded unscoped: a deleted product still belongs to the orders that
// bought it.
func withAggregate(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC, id ASC")
		}).
		Preload("Items.Product", func(tx *gorm.DB) *gorm.DB {
			return tx.Unscoped()
		}).
		Preload("Items.Product.Category")
}

func (r *GORMOrderRepository) List(ctx context.Context, userID string, offset, limit int) ([]models.Order, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Order{})
		if userID != "" {
			q = q.Where("user_id = ?", userID)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, apperror.Internal("failed to count orders", err)
	}

	var orders []models.Order
	err := withAggregate(scoped()).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, apperror.Internal("failed to list orders", err)
	}
	return orders, total, nil
}

func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := withAggregate(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err, apperror.NotFound("order with ID %s not found", id), "get order")
	}
	return &order, nil
}

// Create inserts the order row only; items are written with CreateItems.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
	return translate(err, nil, "create order")
}

func (r *GORMOrderRepository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
	return translate(err, nil, "create order items")
}

func (r *GORMOrderRepository) DeleteItems(ctx context.Context, orderID string) error {
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error
	if err != nil {
		return apperror.Internal("failed to delete order items", err)
	}
	return nil
}

func (r *GORMOrderRepository) UpdateFinalPrice(ctx context.Context, id string, finalPrice decimal.Decimal) error {
	return r.updateColumn(ctx, id, "final_price", finalPrice)
}

func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	return r.updateColumn(ctx, id, "status", status)
}

func (r *GORMOrderRepository) updateColumn(ctx context.Context, id, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return apperror.Internal("failed to update order "+column, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("order with ID %s not found for update", id)
	}
	return nil
}

// Delete removes the order and its items.
func (r *GORMOrderRepository) Delete(ctx context.Context, id string) error {
	if err := r.DeleteItems(ctx, id); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return apperror.Internal("failed to delete order", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("order with ID %s not found for deletion", id)
	}
	return nil
}
