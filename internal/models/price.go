/**
 * @description
 * Price History database model.
 * Maps to the 'price_history' table in PostgreSQL.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/shopspring/decimal
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceHistoryEntry is an immutable record of one listing price transition.
// Rows are append-only.
type PriceHistoryEntry struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID uuid.UUID       `gorm:"type:uuid;column:listing_id;not null;index:idx_price_history_listing_time" json:"listing_id"`
	OldPrice  decimal.Decimal `gorm:"column:old_price;type:decimal(12,2);not null" json:"old_price"`
	NewPrice  decimal.Decimal `gorm:"column:new_price;type:decimal(12,2);not null" json:"new_price"`
	Timestamp time.Time       `gorm:"column:timestamp;not null;index:idx_price_history_listing_time" json:"timestamp"`
}

// TableName overrides the table name used by PriceHistoryEntry to `price_history`
func (PriceHistoryEntry) TableName() string {
	return "price_history"
}

// PriceDropEvent is emitted when a listing becomes cheaper
type PriceDropEvent struct {
	ListingID uuid.UUID       `json:"listing_id"`
	StoreID   uuid.UUID       `json:"store_id"`
	ProductID uuid.UUID       `json:"product_id"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
	Amount    decimal.Decimal `json:"amount"`
	Percent   int64           `json:"percent"`
	Timestamp time.Time       `json:"timestamp"`
}
