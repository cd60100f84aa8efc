package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/services"
)

// ApprovalEvent reports an approval decision taken by admin tooling
type ApprovalEvent struct {
	UserID   uuid.UUID `json:"user_id"`
	Subject  string    `json:"subject"`
	Approved bool      `json:"approved"`
	Reason   string    `json:"reason"`
}

// EventHandler accepts domain events from internal callers
type EventHandler struct {
	emitter *services.NotificationEmitter
}

func NewEventHandler(emitter *services.NotificationEmitter) *EventHandler {
	return &EventHandler{emitter: emitter}
}

// Approval queues an approval notification and returns without waiting for delivery
// POST /api/v1/internal/events/approval
func (h *EventHandler) Approval(c *fiber.Ctx) error {
	var event ApprovalEvent
	if err := c.BodyParser(&event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	event.Subject = strings.TrimSpace(event.Subject)
	if event.UserID == uuid.Nil || event.Subject == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id and subject are required"})
	}

	h.emitter.Approval(event.UserID, event.Subject, event.Approved, strings.TrimSpace(event.Reason))
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"accepted": true})
}
