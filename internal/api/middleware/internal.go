package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/groceryscout/backend/internal/logger"
)

// InternalSecretHeader carries the shared secret of internal callers (vendor tooling, admin)
const InternalSecretHeader = "X-Internal-Secret"

// InternalOnly guards write-path endpoints. An empty secret disables the routes.
func InternalOnly(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			logger.Warn("InternalOnly: INTERNAL_API_SECRET is empty, rejecting %s", c.Path())
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Internal API disabled"})
		}

		provided := c.Get(InternalSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
		return c.Next()
	}
}
