package handlers

import (
	"orderdesk/internal/apperror"
	"orderdesk/internal/middleware"
	"orderdesk/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	log         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    newValidator(),
		log:         log,
	}
}

// RegisterRoutes registers the authentication routes. loginGuards run in
// front of login, logoutGuards in front of logout.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, loginGuards, logoutGuards []fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", chain(loginGuards, h.HandleLogin)...)
	authRoutes.Post("/logout", chain(logoutGuards, h.HandleLogout)...)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,max=100"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return writeError(c, h.log, err)
	}

	user, token, err := h.authService.RegisterUser(c.UserContext(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}

	return respond(c, fiber.StatusCreated, "User registered successfully", fiber.Map{
		"user":  user,
		"token": token,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return writeError(c, h.log, err)
	}

	token, err := h.authService.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		h.log.Info("login failed", zap.String("email", req.Email), zap.Error(err))
		return writeError(c, h.log, err)
	}

	return respond(c, fiber.StatusOK, "Login successful", fiber.Map{"token": token})
}

// HandleLogout revokes the bearer token of the request. A missing or
// unknown token is a bad request rather than an authentication failure.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	tokenString, err := middleware.BearerToken(c)
	if err == nil {
		err = h.authService.Logout(c.UserContext(), tokenString)
	}
	if err != nil {
		if apperror.KindOf(err) == apperror.KindUnauthorized {
			err = apperror.Validation("A valid bearer token is required", nil)
		}
		return writeError(c, h.log, err)
	}

	return respond(c, fiber.StatusOK, "Logged out successfully", nil)
}

// chain appends h to guards without sharing guards' backing array.
func chain(guards []fiber.Handler, h fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(guards)+1)
	out = append(out, guards...)
	return append(out, h)
}
