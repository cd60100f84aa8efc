/**
 * @description
 * Listing API Handlers.
 * Price history for charting, the live price-drop stream, and the internal
 * price write path used by vendor tooling.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"bufio"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/models"
	"github.com/groceryscout/backend/internal/services"
	"github.com/shopspring/decimal"
)

const streamKeepAlive = 25 * time.Second

type ListingHandler struct {
	tracker  *services.PriceTracker
	listings *services.ListingService
	hub      *services.PriceDropHub
}

func NewListingHandler(tracker *services.PriceTracker, listings *services.ListingService, hub *services.PriceDropHub) *ListingHandler {
	return &ListingHandler{
		tracker:  tracker,
		listings: listings,
		hub:      hub,
	}
}

// GetHistory returns the most recent price changes of a listing
// GET /api/v1/listings/:id/history?limit=n&order=asc|desc
func (h *ListingHandler) GetHistory(c *fiber.Ctx) error {
	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid listing id"})
	}

	order := services.SortOrder(c.Query("order", string(services.OrderNewestFirst)))
	if order != services.OrderNewestFirst && order != services.OrderOldestFirst {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "order must be asc or desc"})
	}

	entries, err := h.tracker.History(c.UserContext(), listingID, c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, "ListingHandler", err)
	}
	if order == services.OrderOldestFirst {
		entries = services.Chronological(entries)
	}
	if entries == nil {
		entries = []models.PriceHistoryEntry{}
	}

	return c.JSON(fiber.Map{
		"listing_id": listingID,
		"order":      order,
		"history":    entries,
	})
}

// StreamPriceDrops streams price-drop events over SSE
// GET /api/v1/listings/stream
func (h *ListingHandler) StreamPriceDrops(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	requestCtx := c.Context()
	ch, unsubscribe := h.hub.Subscribe()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		keepAlive := time.NewTicker(streamKeepAlive)
		defer keepAlive.Stop()

		// Flush headers immediately so clients see the stream open
		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		requestDone := requestCtx.Done()
		for {
			select {
			case <-requestDone:
				return
			case <-keepAlive.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			case payload, ok := <-ch:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: price_drop\ndata: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}

// UpdatePriceRequest is the body of the internal price write
type UpdatePriceRequest struct {
	Price *decimal.Decimal `json:"price"`
}

// UpdatePrice applies a new listing price
// PUT /api/v1/internal/listings/:id/price
func (h *ListingHandler) UpdatePrice(c *fiber.Ctx) error {
	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid listing id"})
	}

	var req UpdatePriceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body", "details": err.Error()})
	}
	if req.Price == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "price is required"})
	}

	update, err := h.listings.UpdatePrice(c.UserContext(), listingID, *req.Price)
	if err != nil {
		return respondError(c, "ListingHandler", err)
	}

	return c.JSON(update)
}
