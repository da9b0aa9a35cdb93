package handlers

import (
	"orderdesk/internal/apperror"
	"orderdesk/internal/middleware"
	"orderdesk/internal/models"
	"orderdesk/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
	log      *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: newValidator(),
		log:      log,
	}
}

// RegisterRoutes registers the order routes; every one of them runs behind
// authed.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, authed ...fiber.Handler) {
	router.Get("/order", chain(authed, h.HandleGetOrders)...)
	router.Post("/order", chain(authed, h.HandleCreateOrder)...)
	router.Get("/order/:id", chain(authed, h.HandleGetOrderByID)...)
	router.Patch("/order/:id", chain(authed, h.HandleUpdateOrder)...)
	router.Delete("/order/:id", chain(authed, h.HandleDeleteOrder)...)
	router.Patch("/order/:id/status", chain(authed, h.HandleUpdateOrderStatus)...)
}

// OrderRequest is the body of order create and update. The owner always
// comes from the token, so user_id must not be sent.
type OrderRequest struct {
	UserID *string            `json:"user_id"`
	Items  []models.OrderLine `json:"orderItems" validate:"required,min=1,dive"`
}

// OrderStatusRequest is the body of a status change.
type OrderStatusRequest struct {
	Status *int `json:"status" validate:"required"`
}

func (h *OrderHandler) parseOrderRequest(c *fiber.Ctx) ([]models.OrderLine, error) {
	var req OrderRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return nil, err
	}
	if req.UserID != nil {
		return nil, apperror.Validation("Validation failed", map[string]string{
			"user_id": "Field 'user_id' is prohibited",
		})
	}
	return req.Items, nil
}

// HandleGetOrders lists the caller's orders, or every order with
// scope=all for admins.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	scope := services.ListScope(c.Query("scope", string(services.ScopeOwn)))
	page, err := h.service.ListOrders(c.UserContext(), middleware.IdentityFrom(c), scope, c.QueryInt("page", 1))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, "Orders retrieved successfully", page)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.UserContext(), middleware.IdentityFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, "Order retrieved successfully", order)
}

// HandleCreateOrder creates a new order for the caller.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	lines, err := h.parseOrderRequest(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	order, err := h.service.CreateOrder(c.UserContext(), middleware.IdentityFrom(c), lines)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, fiber.StatusCreated, "Order created successfully", order)
}

// HandleUpdateOrder replaces the items of a pending order.
func (h *OrderHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	lines, err := h.parseOrderRequest(c)
	if err != nil {
		return writeError(c, h.log, err)
	}

	order, err := h.service.UpdateOrder(c.UserContext(), middleware.IdentityFrom(c), c.Params("id"), lines)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, "Order updated successfully", order)
}

// HandleDeleteOrder removes an order.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	if err := h.service.DeleteOrder(c.UserContext(), middleware.IdentityFrom(c), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, "Order deleted successfully", nil)
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req OrderStatusRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return writeError(c, h.log, err)
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), middleware.IdentityFrom(c), c.Params("id"), models.OrderStatus(*req.Status))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, "Order status updated successfully", order)
}
