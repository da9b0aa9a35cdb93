package handlers

import (
	"orderdesk/internal/middleware"
	"orderdesk/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CategoryHandler handles HTTP requests for categories.
type CategoryHandler struct {
	service  *services.CategoryService
	validate *validator.Validate
	log      *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(service *services.CategoryService, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		service:  service,
		validate: newValidator(),
		log:      log,
	}
}

// RegisterRoutes registers the category routes. Reads are public, writes
// run behind authed.
func (h *CategoryHandler) RegisterRoutes(router fiber.Router, authed ...fiber.Handler) {
	router.Get("/category", h.HandleGetCategories)
	router.Get("/category/:id", h.HandleGetCategoryByID)
	router.Post("/category", chain(authed, h.HandleCreateCategory)...)
	router.Patch("/category/:id", chain(authed, h.HandleUpdateCategory)...)
	router.Delete("/category/:id", chain(authed, h.HandleDeleteCategory)...)
}

// CategoryRequest is the body of category create and update.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

func (h *CategoryHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, "Categories retrieved successfully", categories)
}

func (h *CategoryHandler) HandleGetCategoryByID(c *fiber.Ctx) error {
	category, err := h.service.GetCategoryByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, "Category retrieved successfully", category)
}

func (h *CategoryHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return writeError(c, h.log, err)
	}

	category, err := h.service.CreateCategory(c.UserContext(), middleware.IdentityFrom(c), req.Name)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, fiber.StatusCreated, "Category created successfully", category)
}

func (h *CategoryHandler) HandleUpdateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return writeError(c, h.log, err)
	}

	category, err := h.service.UpdateCategory(c.UserContext(), middleware.IdentityFrom(c), c.Params("id"), req.Name)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, "Category updated successfully", category)
}

func (h *CategoryHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	if err := h.service.DeleteCategory(c.UserContext(), middleware.IdentityFrom(c), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, "Category deleted successfully", nil)
}
