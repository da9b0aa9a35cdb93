// Package app wires configuration, storage, services and HTTP routes into a
// runnable Fiber application.
package app

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"orderdesk/internal/config"
	"orderdesk/internal/database"
	"orderdesk/internal/handlers"
	"orderdesk/internal/middleware"
	"orderdesk/internal/policy"
	"orderdesk/internal/repositories"
	"orderdesk/internal/services"
	"orderdesk/pkg/rabbitmq"
)

// App is the assembled service.
type App struct {
	Fiber *fiber.App
	DB    *gorm.DB
	Auth  *services.AuthService

	mq  *rabbitmq.Client
	log *zap.Logger
}

// New connects to the database and, when configured, RabbitMQ, then builds
// the application on top of them.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	var (
		mqClient  *rabbitmq.Client
		publisher services.OrderEventPublisher
	)
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.DefaultConfig(cfg.RabbitMQURL), log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		publisher = mqClient
	} else {
		log.Info("RABBITMQ_URL not set, order events are disabled")
	}

	a, err := Build(cfg, log, db, publisher)
	if err != nil {
		if mqClient != nil {
			_ = mqClient.Close()
		}
		return nil, err
	}
	a.mq = mqClient
	return a, nil
}

// Build wires repositories, services, handlers and routes around an open
// database. publisher may be nil.
func Build(cfg *config.Config, log *zap.Logger, db *gorm.DB, publisher services.OrderEventPublisher) (*App, error) {
	// --- Initialize Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	tokenRepo := repositories.NewGORMTokenRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	txScope := repositories.NewGORMTransactionScope(db)

	// --- Initialize Services ---
	pol := policy.New()
	authService := services.NewAuthService(userRepo, tokenRepo, cfg.JWTSecret, cfg.TokenTTL, log)
	categoryService := services.NewCategoryService(categoryRepo, pol, log)
	productService := services.NewProductService(productRepo, categoryRepo, pol, log, cfg.PageSize)
	orderService := services.NewOrderService(orderRepo, txScope, pol, publisher, log, services.OrderOptions{
		DecrementStock: cfg.DecrementStock,
		PageSize:       cfg.PageSize,
	})

	if cfg.AdminEmail != "" {
		if err := authService.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return nil, fmt.Errorf("failed to bootstrap admin account: %w", err)
		}
	}

	// --- Initialize Fiber App ---
	app := fiber.New(fiber.Config{
		AppName:               "orderdesk",
		ErrorHandler:          handlers.ErrorHandler(log),
		DisableStartupMessage: cfg.IsProduction(),
	})

	// --- Middleware ---
	app.Use(middleware.RequestLogger(log))
	app.Use(recover.New())

	authed := []fiber.Handler{
		middleware.AuthRequired(authService, log),
		middleware.UserRateLimit(cfg.UserRateLimit),
	}
	loginGuards := []fiber.Handler{
		middleware.LoginRateLimit(cfg.LoginRateLimit),
		middleware.LoginEmailRateLimit(cfg.LoginEmailRateLimit),
	}
	logoutGuards := []fiber.Handler{
		middleware.UserRateLimit(cfg.UserRateLimit),
	}

	// --- Routes ---
	handlers.NewHealthHandler(db, publisher != nil, log).RegisterRoutes(app)
	handlers.NewAuthHandler(authService, log).RegisterRoutes(app, loginGuards, logoutGuards)
	handlers.NewCategoryHandler(categoryService, log).RegisterRoutes(app, authed...)
	handlers.NewProductHandler(productService, log).RegisterRoutes(app, authed...)
	handlers.NewOrderHandler(orderService, log).RegisterRoutes(app, authed...)

	return &App{
		Fiber: app,
		DB:    db,
		Auth:  authService,
		log:   log,
	}, nil
}

// Close releases the RabbitMQ connection and the database pool.
func (a *App) Close() {
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			a.log.Warn("failed to close RabbitMQ client", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Warn("failed to close database", zap.Error(err))
		}
	}
}
