/**
 * @description
 * Comparison API Handler.
 * Accepts a wish list and a set of stores and returns the full comparison:
 * per-store breakdowns, best prices, globally missing items and the allocation plan.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - github.com/go-playground/validator/v10
 * - backend/internal/services
 */

package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/api/middleware"
	"github.com/groceryscout/backend/internal/logger"
	"github.com/groceryscout/backend/internal/models"
	"github.com/groceryscout/backend/internal/services"
)

// CompareRequest is the body of POST /api/v1/compare
type CompareRequest struct {
	StoreIDs []uuid.UUID       `json:"store_ids"`
	WishList []models.WishItem `json:"wish_list" validate:"dive"`
}

type CompareHandler struct {
	service  *services.ComparisonService
	users    *services.UserService
	validate *validator.Validate
}

func NewCompareHandler(service *services.ComparisonService, users *services.UserService) *CompareHandler {
	return &CompareHandler{
		service:  service,
		users:    users,
		validate: validator.New(),
	}
}

// Compare runs a multi-store comparison
// POST /api/v1/compare
func (h *CompareHandler) Compare(c *fiber.Ctx) error {
	var req CompareRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body", "details": err.Error()})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   services.ErrInvalidWishItem.Error(),
			"details": validationDetails(err),
		})
	}

	result, err := h.service.Compare(c.UserContext(), services.CompareRequest{
		StoreIDs: req.StoreIDs,
		WishList: req.WishList,
		UserID:   h.optionalUserID(c),
	})
	if err != nil {
		return respondError(c, "CompareHandler", err)
	}

	return c.JSON(result)
}

// optionalUserID returns the local id of a signed-in shopper, or nil
func (h *CompareHandler) optionalUserID(c *fiber.Ctx) *uuid.UUID {
	clerkID, err := middleware.GetUserID(c)
	if err != nil || h.users == nil {
		return nil
	}
	user, err := h.users.GetByClerkID(c.UserContext(), clerkID)
	if err != nil {
		logger.Warn("CompareHandler: no local user for %s: %v", clerkID, err)
		return nil
	}
	return &user.ID
}

func validationDetails(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	details := make([]string, len(verrs))
	for i, fe := range verrs {
		details[i] = fe.Namespace() + " failed " + fe.Tag()
	}
	return details
}
