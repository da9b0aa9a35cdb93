package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"orderdesk/internal/apperror"
)

// UserRateLimit caps each authenticated user at perMinute requests a
// minute. Requests without an identity are keyed by client IP.
func UserRateLimit(perMinute int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID, ok := c.Locals(userIDKey).(string); ok && userID != "" {
				return "user:" + userID
			}
			return "ip:" + c.IP()
		},
		LimitReached: LimitReached,
	})
}

// LoginRateLimit caps login attempts across all clients.
func LoginRateLimit(perMinute int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		KeyGenerator: func(*fiber.Ctx) string {
			return "login"
		},
		LimitReached: LimitReached,
	})
}

// LoginEmailRateLimit caps login attempts for each email in the request
// body. Bodies without an email fall back to the client IP.
func LoginEmailRateLimit(perMinute int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			var body struct {
				Email string `json:"email"`
			}
			if err := c.BodyParser(&body); err == nil {
				if email := strings.ToLower(strings.TrimSpace(body.Email)); email != "" {
					return "login:" + email
				}
			}
			return "login-ip:" + c.IP()
		},
		LimitReached: LimitReached,
	})
}

// LimitReached answers 429 with the number of seconds until the window
// resets.
func LimitReached(c *fiber.Ctx) error {
	retryAfter := 60
	if v, err := strconv.Atoi(c.GetRespHeader(fiber.HeaderRetryAfter)); err == nil {
		retryAfter = v
	}
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))

	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"status":              "error",
		"message":             "Too many requests, please try again later",
		"code":                apperror.CodeRateLimited,
		"retry_after_seconds": retryAfter,
	})
}
