package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"orderdesk/internal/database"
)

// HealthHandler reports whether the service and its database are up.
type HealthHandler struct {
	db            *gorm.DB
	eventsEnabled bool
	log           *zap.Logger
}

func NewHealthHandler(db *gorm.DB, eventsEnabled bool, log *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, eventsEnabled: eventsEnabled, log: log}
}

func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	events := "disabled"
	if h.eventsEnabled {
		events = "enabled"
	}

	if err := database.Ping(h.db); err != nil {
		h.log.Error("health check failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "unhealthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "unreachable",
			"events":   events,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": "connected",
		"events":   events,
	})
}
