package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"orderdesk/internal/apperror"
	"orderdesk/internal/models"
	"orderdesk/internal/policy"
	"orderdesk/internal/repositories"
)

// OrderEventPublisher delivers order events to interested parties.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event models.OrderEvent) error
}

// ListScope selects whose orders ListOrders returns.
type ListScope string

const (
	ScopeOwn ListScope = "own"
	ScopeAll ListScope = "all"
)

// OrderOptions tunes OrderService behavior.
type OrderOptions struct {
	// DecrementStock consumes product stock when lines are written and
	// gives it back when they are removed. Without it stock is only
	// checked.
	DecrementStock bool
	PageSize       int
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orders    repositories.OrderRepository
	txScope   repositories.TransactionScope
	policy    policy.Policy
	publisher OrderEventPublisher
	log       *zap.Logger
	opts      OrderOptions
	now       func() time.Time
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(
	orders repositories.OrderRepository,
	txScope repositories.TransactionScope,
	pol policy.Policy,
	publisher OrderEventPublisher,
	log *zap.Logger,
	opts OrderOptions,
) *OrderService {
	if opts.PageSize <= 0 {
		opts.PageSize = 15
	}
	return &OrderService{
		orders:    orders,
		txScope:   txScope,
		policy:    pol,
		publisher: publisher,
		log:       log,
		opts:      opts,
		now:       time.Now,
	}
}

// ListOrders returns one page of orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, identity policy.Identity, scope ListScope, page int) (models.Page[models.Order], error) {
	var userID string
	switch scope {
	case ScopeOwn, "":
		if identity.UserID == "" {
			return models.Page[models.Order]{}, apperror.Forbidden("authentication required")
		}
		userID = identity.UserID
	case ScopeAll:
		if err := s.policy.Authorize(identity, policy.ViewAnyOrder, nil); err != nil {
			return models.Page[models.Order]{}, err
		}
	default:
		return models.Page[models.Order]{}, apperror.Validation("invalid scope", map[string]string{
			"scope": fmt.Sprintf("scope must be %q or %q", ScopeOwn, ScopeAll),
		})
	}

	if page < 1 {
		page = 1
	}
	orders, total, err := s.orders.List(ctx, userID, models.Offset(page, s.opts.PageSize), s.opts.PageSize)
	if err != nil {
		return models.Page[models.Order]{}, err
	}
	return models.NewPage(orders, total, page, s.opts.PageSize), nil
}

// GetOrder retrieves a single order the caller may view.
func (s *OrderService) GetOrder(ctx context.Context, identity policy.Identity, id string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(identity, policy.ViewOrder, order); err != nil {
		return nil, err
	}
	return order, nil
}

// CreateOrder validates every line against stock, freezes the current
// product prices into the items and stores order and items in one
// transaction. Nothing is written when any line fails.
func (s *OrderService) CreateOrder(ctx context.Context, identity policy.Identity, lines []models.OrderLine) (*models.Order, error) {
	if identity.UserID == "" {
		return nil, apperror.Forbidden("authentication required")
	}
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	var created *models.Order
	err := s.txScope.Execute(ctx, func(repos repositories.TxRepositories) error {
		items, total, err := s.stageLines(ctx, repos.Products(), lines)
		if err != nil {
			return err
		}

		order := &models.Order{
			UserID:     identity.UserID,
			FinalPrice: models.NewMoney(total),
			Status:     models.OrderStatusPending,
		}
		if err := repos.Orders().Create(ctx, order); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repos.Orders().CreateItems(ctx, items); err != nil {
			return err
		}

		created, err = repos.Orders().GetByID(ctx, order.ID)
		return err
	})
	if err != nil {
		s.log.Info("order creation rejected", zap.String("user_id", identity.UserID), zap.Error(err))
		return nil, err
	}

	s.log.Info("order created",
		zap.String("order_id", created.ID),
		zap.String("user_id", created.UserID),
		zap.String("final_price", created.FinalPrice.String()),
	)
	s.publish(ctx, models.OrderEventCreated, created)
	return created, nil
}

// UpdateOrder replaces every item of a pending order and recomputes its
// total. On any failure the previous items and total stay as they were.
// The owner of an order never changes.
func (s *OrderService) UpdateOrder(ctx context.Context, identity policy.Identity, id string, lines []models.OrderLine) (*models.Order, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	var updated *models.Order
	err := s.txScope.Execute(ctx, func(repos repositories.TxRepositories) error {
		order, err := repos.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.policy.Authorize(identity, policy.UpdateOrder, order); err != nil {
			return err
		}
		if !order.Status.Modifiable() {
			return notModifiable(order)
		}

		if s.opts.DecrementStock {
			if err := restock(ctx, repos.Products(), order.Items); err != nil {
				return err
			}
		}
		if err := repos.Orders().DeleteItems(ctx, order.ID); err != nil {
			return err
		}

		items, total, err := s.stageLines(ctx, repos.Products(), lines)
		if err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repos.Orders().CreateItems(ctx, items); err != nil {
			return err
		}
		if err := repos.Orders().UpdateFinalPrice(ctx, order.ID, total); err != nil {
			return err
		}

		updated, err = repos.Orders().GetByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order updated",
		zap.String("order_id", updated.ID),
		zap.String("final_price", updated.FinalPrice.String()),
	)
	s.publish(ctx, models.OrderEventUpdated, updated)
	return updated, nil
}

// DeleteOrder removes an order with its items.
func (s *OrderService) DeleteOrder(ctx context.Context, identity policy.Identity, id string) error {
	var deleted *models.Order
	err := s.txScope.Execute(ctx, func(repos repositories.TxRepositories) error {
		order, err := repos.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.policy.Authorize(identity, policy.DeleteOrder, order); err != nil {
			return err
		}
		if s.opts.DecrementStock && order.Status == models.OrderStatusPending {
			if err := restock(ctx, repos.Products(), order.Items); err != nil {
				return err
			}
		}
		deleted = order
		return repos.Orders().Delete(ctx, order.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("order deleted", zap.String("order_id", id))
	s.publish(ctx, models.OrderEventDeleted, deleted)
	return nil
}

// UpdateOrderStatus moves a pending order to locked or cancelled. Locked
// and cancelled are final.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, identity policy.Identity, id string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperror.Validation("invalid order status", map[string]string{
			"status": fmt.Sprintf("status must be one of %d, %d or %d", models.OrderStatusCancelled, models.OrderStatusPending, models.OrderStatusLocked),
		})
	}

	var updated *models.Order
	changed := false
	err := s.txScope.Execute(ctx, func(repos repositories.TxRepositories) error {
		order, err := repos.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.policy.Authorize(identity, policy.SetOrderStatus, order); err != nil {
			return err
		}
		if order.Status == status {
			updated = order
			return nil
		}
		if !order.Status.Modifiable() || status == models.OrderStatusPending {
			return notModifiable(order)
		}

		if s.opts.DecrementStock && status == models.OrderStatusCancelled {
			if err := restock(ctx, repos.Products(), order.Items); err != nil {
				return err
			}
		}
		if err := repos.Orders().UpdateStatus(ctx, order.ID, status); err != nil {
			return err
		}
		changed = true
		updated, err = repos.Orders().GetByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.log.Info("order status changed",
			zap.String("order_id", updated.ID),
			zap.Stringer("status", updated.Status),
		)
		s.publish(ctx, models.OrderEventStatusChanged, updated)
	}
	return updated, nil
}

// stageLines reads each product once per line, checks stock and builds the
// items, in line order, with the price read right now. The returned total is the exact sum
// of quantity x price over the items.
func (s *OrderService) stageLines(ctx context.Context, products repositories.ProductRepository, lines []models.OrderLine) ([]models.OrderItem, decimal.Decimal, error) {
	items := make([]models.OrderItem, 0, len(lines))
	requested := make(map[string]int, len(lines))
	total := decimal.Zero

	for i, line := range lines {
		product, err := products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, decimal.Zero, err
		}

		if s.opts.DecrementStock {
			if err := products.AdjustStock(ctx, product.ID, -line.Quantity); err != nil {
				if errors.Is(err, apperror.ErrInsufficientStock) {
					return nil, decimal.Zero, insufficientStock(product, line.Quantity, product.Quantity)
				}
				return nil, decimal.Zero, err
			}
		} else {
			requested[product.ID] += line.Quantity
			if requested[product.ID] > product.Quantity {
				return nil, decimal.Zero, insufficientStock(product, requested[product.ID], product.Quantity)
			}
		}

		item := models.OrderItem{
			ProductID:     product.ID,
			Quantity:      line.Quantity,
			PriceOnMoment: product.Price,
			Position:      i,
		}
		total = total.Add(item.Subtotal())
		items = append(items, item)
	}
	return items, total, nil
}

func restock(ctx context.Context, products repositories.ProductRepository, items []models.OrderItem) error {
	for _, item := range items {
		if err := products.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order) {
	if s.publisher == nil || order == nil {
		return
	}
	event := models.OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		FinalPrice: order.FinalPrice,
		ItemCount:  len(order.Items),
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.log.Warn("failed to publish order event",
			zap.String("type", eventType),
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}
}

func validateLines(lines []models.OrderLine) error {
	if len(lines) == 0 {
		return apperror.Validation("order must contain at least one item", map[string]string{
			"orderItems": "at least one item is required",
		})
	}
	fields := make(map[string]string)
	for i, line := range lines {
		if line.ProductID == "" {
			fields[fmt.Sprintf("orderItems[%d].product_id", i)] = "product_id is required"
		}
		if line.Quantity <= 0 {
			fields[fmt.Sprintf("orderItems[%d].quantity", i)] = "quantity must be greater than 0"
		}
	}
	if len(fields) > 0 {
		return apperror.Validation("invalid order items", fields)
	}
	return nil
}

func insufficientStock(product *models.Product, requested, available int) error {
	return apperror.Conflict(apperror.CodeInsufficientStock,
		"insufficient stock for product %s (requested: %d, available: %d)", product.Name, requested, available)
}

func notModifiable(order *models.Order) error {
	return apperror.Conflict(apperror.CodeOrderNotModifiable,
		"order %s is %s and cannot be modified", order.ID, order.Status)
}
