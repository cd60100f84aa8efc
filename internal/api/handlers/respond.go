package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/groceryscout/backend/internal/api/middleware"
	"github.com/groceryscout/backend/internal/logger"
	"github.com/groceryscout/backend/internal/models"
	"github.com/groceryscout/backend/internal/services"
)

// respondError maps the services error taxonomy to HTTP statuses. Caller errors are
// not logged; upstream failures are.
func respondError(c *fiber.Ctx, op string, err error) error {
	switch {
	case errors.Is(err, services.ErrUnknownStore),
		errors.Is(err, services.ErrListingNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})

	case services.IsCallerError(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, services.ErrUpstreamUnavailable):
		logger.Error("%s: %v", op, err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Service temporarily unavailable"})

	default:
		logger.Error("%s: %v", op, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

// currentUser resolves the authenticated Clerk subject to the local user row.
// A nil user means the error response has already been written.
func currentUser(c *fiber.Ctx, users *services.UserService) (*models.User, error) {
	clerkID, err := middleware.GetUserID(c)
	if err != nil {
		return nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	user, err := users.GetByClerkID(c.UserContext(), clerkID)
	if err != nil {
		return nil, respondError(c, "currentUser", err)
	}
	return user, nil
}
