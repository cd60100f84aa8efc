package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/services"
)

// NotificationHandler serves the notification inbox
type NotificationHandler struct {
	notifications *services.NotificationService
	users         *services.UserService
}

func NewNotificationHandler(notifications *services.NotificationService, users *services.UserService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, users: users}
}

// GetUnread returns unread notifications
// GET /api/v1/notifications
func (h *NotificationHandler) GetUnread(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if user == nil {
		return err
	}

	notifications, err := h.notifications.GetUnreadNotifications(c.UserContext(), user.ID)
	if err != nil {
		return respondError(c, "NotificationHandler", err)
	}
	return c.JSON(fiber.Map{"notifications": notifications, "unread": len(notifications)})
}

// MarkRead marks one notification as read
// POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if user == nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification id"})
	}

	if err := h.notifications.MarkAsRead(c.UserContext(), user.ID, id); err != nil {
		return respondError(c, "NotificationHandler", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// MarkAllRead marks every notification as read
// POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if user == nil {
		return err
	}

	if err := h.notifications.MarkAllAsRead(c.UserContext(), user.ID); err != nil {
		return respondError(c, "NotificationHandler", err)
	}
	return c.JSON(fiber.Map{"success": true})
}
