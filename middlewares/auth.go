package middlewares

import (
	"errors"
	"strings"

	"billweave-backend/identity"
	"billweave-backend/policy"

	"github.com/gofiber/fiber/v2"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// IsAuthenticatedHeader validates a Bearer token against the identity provider
// and populates c.Locals("userID", "sessionID").
func IsAuthenticatedHeader(provider identity.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(authHeader)
		if h == "" || !strings.HasPrefix(strings.ToLower(h), strings.ToLower(bearerPrefix)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "missing/invalid Authorization header"})
		}
		raw := strings.TrimSpace(h[len(bearerPrefix):])
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid bearer token"})
		}

		claims, err := provider.Verify(c.UserContext(), raw)
		if errors.Is(err, identity.ErrSessionRevoked) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "session signed out"})
		}
		if errors.Is(err, identity.ErrInvalidToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid or expired token"})
		}
		if err != nil {
			return err
		}

		c.Locals("userID", claims.Subject)
		c.Locals("sessionID", claims.ID)
		return c.Next()
	}
}

// RequireAdmin rejects callers whose account does not resolve to the admin role.
// Run it after IsAuthenticatedHeader.
func RequireAdmin(roles policy.RoleResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("userID").(string)
		isAdmin, err := roles.IsAdmin(c.UserContext(), userID)
		if err != nil {
			return err
		}
		if !isAdmin {
			return fiber.NewError(fiber.StatusForbidden, "admin access required")
		}
		return c.Next()
	}
}

// UserID returns the authenticated account id stored by IsAuthenticatedHeader.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

// SessionID returns the session id stored by IsAuthenticatedHeader.
func SessionID(c *fiber.Ctx) string {
	id, _ := c.Locals("sessionID").(string)
	return id
}
