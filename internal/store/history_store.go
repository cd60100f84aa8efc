package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/models"
	"github.com/groceryscout/backend/internal/services"
	"gorm.io/gorm"
)

// HistoryStore appends and queries price_history rows
type HistoryStore struct {
	db *gorm.DB
}

// NewHistoryStore creates a new HistoryStore
func NewHistoryStore(db *gorm.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Append inserts one entry; entry.ID is filled from the sequence.
func (s *HistoryStore) Append(ctx context.Context, entry *models.PriceHistoryEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return classify("append price history", err, services.ErrListingNotFound)
	}
	return nil
}

// Query returns up to limit entries for the listing. Entries sharing a timestamp
// keep insertion order.
func (s *HistoryStore) Query(ctx context.Context, listingID uuid.UUID, limit int, order services.SortOrder) ([]models.PriceHistoryEntry, error) {
	orderBy := "timestamp DESC, id DESC"
	if order == services.OrderOldestFirst {
		orderBy = "timestamp ASC, id ASC"
	}

	entries := make([]models.PriceHistoryEntry, 0)
	err := s.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order(orderBy).
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, classify("query price history", err, nil)
	}
	return entries, nil
}
