/**
 * @description
 * Price History Tracker.
 * Called on every listing price write. Appends one immutable history entry per real
 * change and raises a price-drop event when the listing got cheaper.
 *
 * @notes
 * - Identical old/new prices are a no-op (idempotent writes leave no trace).
 * - A drop from a zero price is recorded but never flagged (no percentage exists).
 * - Duplicate delivery of the same callback produces duplicate rows; this is accepted.
 *
 * @dependencies
 * - github.com/shopspring/decimal
 */

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/models"
	"github.com/shopspring/decimal"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

var hundred = decimal.NewFromInt(100)

// PriceDropSink receives price-drop events. Implementations must not block.
type PriceDropSink interface {
	PriceDropped(event models.PriceDropEvent)
}

// PriceTracker records listing price transitions
type PriceTracker struct {
	history HistoryStore
	sinks   []PriceDropSink
}

// NewPriceTracker creates a new PriceTracker
func NewPriceTracker(history HistoryStore, sinks ...PriceDropSink) *PriceTracker {
	return &PriceTracker{
		history: history,
		sinks:   sinks,
	}
}

// OnPriceChange records a listing price change. It returns the appended entry, or
// nil when the price did not change.
func (t *PriceTracker) OnPriceChange(ctx context.Context, listingID uuid.UUID, oldPrice, newPrice decimal.Decimal, ts time.Time) (*models.PriceHistoryEntry, error) {
	if newPrice.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, newPrice.String())
	}

	entry := t.Entry(listingID, oldPrice, newPrice, ts)
	if entry == nil {
		return nil, nil
	}
	if err := t.history.Append(ctx, entry); err != nil {
		return nil, err
	}

	t.Committed(entry)
	return entry, nil
}

// Entry builds the history row for a transition, or nil when the price is unchanged.
func (t *PriceTracker) Entry(listingID uuid.UUID, oldPrice, newPrice decimal.Decimal, ts time.Time) *models.PriceHistoryEntry {
	if oldPrice.Equal(newPrice) {
		return nil
	}
	return &models.PriceHistoryEntry{
		ListingID: listingID,
		OldPrice:  oldPrice,
		NewPrice:  newPrice,
		Timestamp: ts.UTC(),
	}
}

// Committed raises the drop event for an entry once it is persisted.
func (t *PriceTracker) Committed(entry *models.PriceHistoryEntry) {
	event, ok := DetectDrop(entry.ListingID, entry.OldPrice, entry.NewPrice, entry.Timestamp)
	if !ok {
		return
	}
	for _, sink := range t.sinks {
		sink.PriceDropped(event)
	}
}

// History returns up to limit entries for a listing, most recent first.
func (t *PriceTracker) History(ctx context.Context, listingID uuid.UUID, limit int) ([]models.PriceHistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return t.history.Query(ctx, listingID, limit, OrderNewestFirst)
}

// DetectDrop builds a price-drop event when newPrice < oldPrice and oldPrice > 0.
func DetectDrop(listingID uuid.UUID, oldPrice, newPrice decimal.Decimal, ts time.Time) (models.PriceDropEvent, bool) {
	if !newPrice.LessThan(oldPrice) || !oldPrice.IsPositive() {
		return models.PriceDropEvent{}, false
	}

	amount := oldPrice.Sub(newPrice)
	percent := amount.Div(oldPrice).Mul(hundred).Round(0).IntPart()

	return models.PriceDropEvent{
		ListingID: listingID,
		OldPrice:  oldPrice,
		NewPrice:  newPrice,
		Amount:    amount,
		Percent:   percent,
		Timestamp: ts,
	}, true
}

// Chronological returns a copy of most-recent-first entries in charting order.
func Chronological(entries []models.PriceHistoryEntry) []models.PriceHistoryEntry {
	out := make([]models.PriceHistoryEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
