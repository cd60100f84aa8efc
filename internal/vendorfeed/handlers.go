/**
 * @description
 * Handlers for vendor price feed messages.
 * Defines the wire format of store price events and applies each one through the
 * listing write path, which records history and fires price-drop events.
 *
 * Key features:
 * - Single `price_update` events and store-level `price_batch` events.
 * - JSON arrays of events are fanned out item by item.
 * - Rejected updates (unknown listing, negative price) are logged and skipped so one
 *   bad quote never stalls the feed.
 *
 * @dependencies
 * - encoding/json
 * - github.com/shopspring/decimal
 */

package vendorfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/logger"
	"github.com/groceryscout/backend/internal/services"
	"github.com/shopspring/decimal"
)

// Event Types
const (
	EventTypePriceUpdate = "price_update"
	EventTypePriceBatch  = "price_batch"
)

// BaseMessage is used to peek at the event type before full unmarshalling
type BaseMessage struct {
	EventType string `json:"event_type"`
}

// PriceUpdateMessage is one listing's new shelf price
type PriceUpdateMessage struct {
	EventType string `json:"event_type"`
	ListingID string `json:"listing_id"`
	Price     string `json:"price"`
	Timestamp string `json:"timestamp"` // unix millis; empty means now
}

// ListingPrice is one entry of a batch
type ListingPrice struct {
	ListingID string `json:"listing_id"`
	Price     string `json:"price"`
}

// PriceBatchMessage carries several price changes of one store sharing a timestamp
type PriceBatchMessage struct {
	EventType string         `json:"event_type"`
	StoreID   string         `json:"store_id"`
	Timestamp string         `json:"timestamp"`
	Prices    []ListingPrice `json:"prices"`
}

// PriceUpdater is the listing write path the feed drives
type PriceUpdater interface {
	UpdatePriceAt(ctx context.Context, listingID uuid.UUID, newPrice decimal.Decimal, at time.Time) (*services.PriceUpdate, error)
}

// MessageHandler processes incoming feed messages
type MessageHandler struct {
	updater PriceUpdater
	now     func() time.Time
}

func NewMessageHandler(updater PriceUpdater) *MessageHandler {
	return &MessageHandler{
		updater: updater,
		now:     time.Now,
	}
}

// HandleMessage routes the raw JSON message to the specific handler
func (h *MessageHandler) HandleMessage(ctx context.Context, msg []byte) error {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 {
		return nil
	}

	switch msg[0] {
	case '{', '[':
	default:
		text := strings.ToUpper(string(msg))
		switch text {
		case "PING", "PONG":
			return nil
		default:
			logger.Warn("VendorFeed: ignoring non-JSON frame: %s", text)
			return nil
		}
	}

	// Vendors may batch several events in one JSON array
	if msg[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(msg, &batch); err != nil {
			return fmt.Errorf("failed to parse batched events: %w", err)
		}

		var firstErr error
		for _, raw := range batch {
			if err := h.HandleMessage(ctx, raw); err != nil {
				logger.Error("VendorFeed: batch item failed: %v", err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		return firstErr
	}

	var base BaseMessage
	if err := json.Unmarshal(msg, &base); err != nil {
		return fmt.Errorf("failed to parse event type: %w", err)
	}

	switch base.EventType {
	case EventTypePriceUpdate:
		var m PriceUpdateMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			return err
		}
		return h.apply(ctx, m.ListingID, m.Price, h.parseTimestamp(m.Timestamp))

	case EventTypePriceBatch:
		var m PriceBatchMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			return err
		}
		return h.handleBatch(ctx, &m)

	default:
		return nil
	}
}

func (h *MessageHandler) handleBatch(ctx context.Context, m *PriceBatchMessage) error {
	at := h.parseTimestamp(m.Timestamp)
	applied := 0
	for _, p := range m.Prices {
		if err := h.apply(ctx, p.ListingID, p.Price, at); err != nil {
			// Upstream failure: stop so the remaining quotes are not applied out of order
			return fmt.Errorf("store %s batch stopped after %d updates: %w", m.StoreID, applied, err)
		}
		applied++
	}
	return nil
}

// apply returns only upstream failures; rejected quotes are logged.
func (h *MessageHandler) apply(ctx context.Context, rawListingID, rawPrice string, at time.Time) error {
	listingID, err := uuid.Parse(rawListingID)
	if err != nil {
		logger.Warn("VendorFeed: invalid listing id %q", rawListingID)
		return nil
	}
	price, err := decimal.NewFromString(strings.TrimSpace(rawPrice))
	if err != nil {
		logger.Warn("VendorFeed: invalid price %q for listing %s", rawPrice, listingID)
		return nil
	}

	update, err := h.updater.UpdatePriceAt(ctx, listingID, price, at)
	if err != nil {
		if services.IsCallerError(err) {
			logger.Warn("VendorFeed: rejected update for listing %s: %v", listingID, err)
			return nil
		}
		return err
	}

	if update.Entry != nil {
		logger.WithFields(map[string]interface{}{
			"listing_id": listingID.String(),
			"old_price":  update.OldPrice.StringFixed(2),
			"new_price":  price.StringFixed(2),
		}).Debug("VendorFeed: price changed")
	}
	return nil
}

// parseTimestamp reads unix millis; missing or malformed values fall back to now.
func (h *MessageHandler) parseTimestamp(raw string) time.Time {
	if raw == "" {
		return h.now()
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return h.now()
	}
	return time.UnixMilli(ms).UTC()
}
