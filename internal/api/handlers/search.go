package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/groceryscout/backend/internal/services"
)

type SearchRequest struct {
	Query string `json:"query"`
}

// SearchHandler records searches and serves the trending list
type SearchHandler struct {
	trending *services.TrendingService
}

func NewSearchHandler(trending *services.TrendingService) *SearchHandler {
	return &SearchHandler{trending: trending}
}

// RecordSearch counts one search
// POST /api/v1/search
func (h *SearchHandler) RecordSearch(c *fiber.Ctx) error {
	var req SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	counter, err := h.trending.RecordSearch(c.UserContext(), req.Query)
	if err != nil {
		return respondError(c, "SearchHandler", err)
	}
	return c.JSON(counter)
}

// GetTrending returns the most popular queries
// GET /api/v1/trending?limit=n
func (h *SearchHandler) GetTrending(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit > 100 {
		limit = 100
	}

	top, err := h.trending.TopN(c.UserContext(), limit)
	if err != nil {
		return respondError(c, "SearchHandler", err)
	}
	return c.JSON(fiber.Map{"trending": top})
}
