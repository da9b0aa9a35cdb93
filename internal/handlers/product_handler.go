package handlers

import (
	"orderdesk/internal/middleware"
	"orderdesk/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
	log      *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: newValidator(),
		log:      log,
	}
}

// RegisterRoutes registers the product routes. Reads are public, writes run
// behind authed.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, authed ...fiber.Handler) {
	router.Get("/product", h.HandleGetProducts)
	router.Get("/product/:id", h.HandleGetProductByID)
	router.Post("/product", chain(authed, h.HandleCreateProduct)...)
	router.Patch("/product/:id", chain(authed, h.HandleUpdateProduct)...)
	router.Delete("/product/:id", chain(authed, h.HandleDeleteProduct)...)
	router.Post("/product/:id/restore", chain(authed, h.HandleRestoreProduct)...)
}

// CreateProductRequest is the body of product creation.
type CreateProductRequest struct {
	Name       string          `json:"name" validate:"required,max=255"`
	Price      decimal.Decimal `json:"price" validate:"required,gt=0"`
	Quantity   *int            `json:"quantity" validate:"omitempty,gte=0"`
	CategoryID string          `json:"category_id" validate:"required"`
}

// UpdateProductRequest is the body of a partial product update; absent
// fields are left as they are.
type UpdateProductRequest struct {
	Name       *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Price      *decimal.Decimal `json:"price" validate:"omitempty,gt=0"`
	Quantity   *int             `json:"quantity" validate:"omitempty,gte=0"`
	CategoryID *string          `json:"category_id" validate:"omitempty,min=1"`
}

// HandleGetProducts retrieves one page of products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	page, err := h.service.ListProducts(c.UserContext(), c.QueryInt("page", 1))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, "Products retrieved successfully", page)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, "Product retrieved successfully", product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req CreateProductRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return writeError(c, h.log, err)
	}

	input := services.ProductInput{
		Name:       req.Name,
		Price:      req.Price,
		CategoryID: req.CategoryID,
	}
	if req.Quantity != nil {
		input.Quantity = *req.Quantity
	}

	product, err := h.service.CreateProduct(c.UserContext(), middleware.IdentityFrom(c), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, fiber.StatusCreated, "Product created successfully", product)
}

// HandleUpdateProduct applies a partial update to a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var req UpdateProductRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return writeError(c, h.log, err)
	}

	product, err := h.service.UpdateProduct(c.UserContext(), middleware.IdentityFrom(c), c.Params("id"), services.ProductPatch{
		Name:       req.Name,
		Price:      req.Price,
		Quantity:   req.Quantity,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, "Product updated successfully", product)
}

// HandleDeleteProduct soft-deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), middleware.IdentityFrom(c), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, "Product deleted successfully", nil)
}

// HandleRestoreProduct brings back a soft-deleted product.
func (h *ProductHandler) HandleRestoreProduct(c *fiber.Ctx) error {
	product, err := h.service.RestoreProduct(c.UserContext(), middleware.IdentityFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, "Product restored successfully", product)
}
