/**
 * @description
 * Saved Product API Handlers.
 * Shoppers save products to receive price-drop notifications.
 */

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/services"
)

// SavedProductHandler handles saved-product requests
type SavedProductHandler struct {
	saved *services.SavedProductService
	users *services.UserService
}

func NewSavedProductHandler(saved *services.SavedProductService, users *services.UserService) *SavedProductHandler {
	return &SavedProductHandler{saved: saved, users: users}
}

// SaveRequest represents a save request body
type SaveRequest struct {
	ProductID uuid.UUID `json:"product_id"`
}

// List returns the user's saved products with their best current price
// GET /api/v1/saved
func (h *SavedProductHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if user == nil {
		return err
	}

	items, err := h.saved.GetSavedProducts(c.UserContext(), user.ID)
	if err != nil {
		return respondError(c, "SavedProductHandler", err)
	}
	return c.JSON(fiber.Map{"saved": items})
}

// Save adds a product to the saved list
// POST /api/v1/saved
func (h *SavedProductHandler) Save(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if user == nil {
		return err
	}

	var req SaveRequest
	if err := c.BodyParser(&req); err != nil || req.ProductID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "product_id is required"})
	}

	if err := h.saved.SaveProduct(c.UserContext(), user.ID, req.ProductID); err != nil {
		return respondError(c, "SavedProductHandler", err)
	}
	return c.JSON(fiber.Map{"success": true, "saved": true, "product_id": req.ProductID})
}

// Remove deletes a product from the saved list
// DELETE /api/v1/saved/:productId
func (h *SavedProductHandler) Remove(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if user == nil {
		return err
	}

	productID, err := uuid.Parse(c.Params("productId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product id"})
	}

	if err := h.saved.RemoveProduct(c.UserContext(), user.ID, productID); err != nil {
		return respondError(c, "SavedProductHandler", err)
	}
	return c.JSON(fiber.Map{"success": true, "saved": false, "product_id": productID})
}

// Toggle flips the saved state
// POST /api/v1/saved/toggle
func (h *SavedProductHandler) Toggle(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if user == nil {
		return err
	}

	var req SaveRequest
	if err := c.BodyParser(&req); err != nil || req.ProductID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "product_id is required"})
	}

	saved, err := h.saved.ToggleProduct(c.UserContext(), user.ID, req.ProductID)
	if err != nil {
		return respondError(c, "SavedProductHandler", err)
	}
	return c.JSON(fiber.Map{"success": true, "saved": saved, "product_id": req.ProductID})
}
