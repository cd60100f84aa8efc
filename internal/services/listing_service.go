/**
 * @description
 * Listing write path.
 * Applies a store's new listing price and hands the transition to the Price History Tracker.
 *
 * @notes
 * - The price write and its history entry commit together; a failed update leaves the
 *   old price in place, so replaying it records the transition.
 * - Drop events are raised only after the commit.
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

// PriceUpdate is the outcome of one listing price write
type PriceUpdate struct {
	Listing  *models.StoreListing      `json:"listing"`
	OldPrice decimal.Decimal           `json:"old_price"`
	Entry    *models.PriceHistoryEntry `json:"history_entry,omitempty"`
}

// ListingService handles listing price updates
type ListingService struct {
	listings ListingStore
	tracker  *PriceTracker
	now      func() time.Time
}

// NewListingService creates a new ListingService
func NewListingService(listings ListingStore, tracker *PriceTracker) *ListingService {
	return &ListingService{
		listings: listings,
		tracker:  tracker,
		now:      time.Now,
	}
}

// UpdatePrice writes the new price and records the change.
func (s *ListingService) UpdatePrice(ctx context.Context, listingID uuid.UUID, newPrice decimal.Decimal) (*PriceUpdate, error) {
	return s.UpdatePriceAt(ctx, listingID, newPrice, s.now())
}

// UpdatePriceAt is UpdatePrice with an explicit change timestamp (feed-supplied).
func (s *ListingService) UpdatePriceAt(ctx context.Context, listingID uuid.UUID, newPrice decimal.Decimal, at time.Time) (*PriceUpdate, error) {
	if newPrice.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, newPrice.String())
	}

	update, err := s.listings.UpdatePriceWithHistory(ctx, listingID, newPrice, at, func(oldPrice decimal.Decimal) *models.PriceHistoryEntry {
		return s.tracker.Entry(listingID, oldPrice, newPrice, at)
	})
	if err != nil {
		return nil, err
	}

	if update.Entry != nil {
		s.tracker.Committed(update.Entry)
	}
	return update, nil
}
