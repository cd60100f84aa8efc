/**
 * @description
 * Transient comparison types.
 * Nothing here is persisted: a ComparisonResult is computed fresh for every request.
 *
 * @dependencies
 * - github.com/shopspring/decimal
 */

package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WishItem is one requested product and how many units the shopper wants
type WishItem struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gte=1"`
}

// ListingMatch pairs a wish item with the store listing that satisfies it
type ListingMatch struct {
	Item      WishItem        `json:"item"`
	ListingID uuid.UUID       `json:"listing_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// StoreBreakdown is the per-store view of a comparison
type StoreBreakdown struct {
	StoreID  uuid.UUID       `json:"store_id"`
	Matches  []ListingMatch  `json:"matches"`
	Missing  []WishItem      `json:"missing"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Coverage float64         `json:"coverage"`
}

// ItemBestPrice records the cheapest store for one wish item (ties go to the lowest store id)
type ItemBestPrice struct {
	ProductID   uuid.UUID       `json:"product_id"`
	BestStoreID uuid.UUID       `json:"best_store_id"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Allocation assigns one wish item to one store
type Allocation struct {
	Item      WishItem        `json:"item"`
	StoreID   uuid.UUID       `json:"store_id"`
	ListingID uuid.UUID       `json:"listing_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// AllocationPlan is the recommended cross-store split
type AllocationPlan struct {
	Assignments []Allocation    `json:"assignments"`
	StoresUsed  []uuid.UUID     `json:"stores_used"`
	MaxStores   int             `json:"max_stores"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	// Unassigned lists coverable items no retained store could supply under the store cap.
	Unassigned []WishItem `json:"unassigned"`
	// Savings is measured against the cheapest single store that supplies every assigned item.
	Savings        *decimal.Decimal `json:"savings,omitempty"`
	SavingsPercent int64            `json:"savings_percent"`
}

// ComparisonResult is the full response of a comparison request
type ComparisonResult struct {
	Stores          []StoreBreakdown `json:"stores"`
	BestPrices      []ItemBestPrice  `json:"best_prices"`
	GloballyMissing []WishItem       `json:"globally_missing"`
	Plan            AllocationPlan   `json:"plan"`
}
