/**
 * @description
 * User API Handlers.
 * Handles user synchronization and profile retrieval.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/groceryscout/backend/internal/api/middleware"
	"github.com/groceryscout/backend/internal/logger"
	"github.com/groceryscout/backend/internal/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// SyncUserRequest defines payload for syncing user
type SyncUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// SyncUser ensures the user exists in the database
// POST /api/v1/user/sync
func (h *UserHandler) SyncUser(c *fiber.Ctx) error {
	clerkID, err := middleware.GetUserID(c)
	if err != nil {
		logger.Error("SyncUser: Failed to get user ID from context: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req SyncUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body", "details": err.Error()})
	}

	user, err := h.users.SyncUser(c.UserContext(), clerkID, req.Email, req.DisplayName)
	if err != nil {
		return respondError(c, "SyncUser", err)
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

// GetMe returns the current authenticated user
// GET /api/v1/user/me
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if user == nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(user)
}
