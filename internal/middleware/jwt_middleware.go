package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"orderdesk/internal/apperror"
	"orderdesk/internal/policy"
)

const (
	identityKey = "identity"
	userIDKey   = "user_id"
)

// TokenValidator resolves a bearer token into the identity it was issued to.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (policy.Identity, error)
}

// AuthRequired is a Fiber middleware to check for a valid bearer token.
func AuthRequired(tokens TokenValidator, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := BearerToken(c)
		if err != nil {
			return err
		}

		identity, err := tokens.ValidateToken(c.UserContext(), tokenString)
		if err != nil {
			log.Debug("token validation failed", zap.String("path", utils.CopyString(c.Path())), zap.Error(err))
			if apperror.KindOf(err) == apperror.KindUnauthorized {
				return apperror.Unauthorized("Invalid or expired token")
			}
			return err
		}

		// Store the identity in Fiber context for subsequent handlers
		c.Locals(identityKey, identity)
		c.Locals(userIDKey, identity.UserID)

		return c.Next()
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", apperror.Unauthorized("Authorization header is required")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperror.Unauthorized("Authorization header format must be 'Bearer <token>'")
	}
	return strings.TrimSpace(parts[1]), nil
}

// IdentityFrom returns the identity stored by AuthRequired. The zero
// Identity is returned on routes without authentication.
func IdentityFrom(c *fiber.Ctx) policy.Identity {
	identity, _ := c.Locals(identityKey).(policy.Identity)
	return identity
}
