/**
 * @description
 * Comparison Engine.
 * Reconciles a shopper's wish list against 2-3 candidate stores: per-store subtotals
 * and coverage, the cheapest store per item, and a store-capped allocation plan.
 *
 * Key features:
 * - Per-store resolution runs concurrently; allocation waits for all of them.
 * - Output is deterministic for a given listing snapshot: stores are ordered by id,
 *   items keep wish-list order, and price ties go to the lowest store id.
 * - Results are never cached; every call reads current listings.
 *
 * @dependencies
 * - golang.org/x/sync/errgroup
 * - github.com/shopspring/decimal
 */

package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/config"
	"github.com/groceryscout/backend/internal/logger"
	"github.com/groceryscout/backend/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// CompareRequest is a single comparison invocation
type CompareRequest struct {
	StoreIDs []uuid.UUID
	WishList []models.WishItem
	// UserID is set for authenticated shoppers; it enables split-savings alerts.
	UserID *uuid.UUID
}

// ComparisonService runs multi-store comparisons
type ComparisonService struct {
	catalog             *CatalogIndex
	limits              config.CompareConfig
	emitter             *NotificationEmitter
	savingsAlertPercent int64
}

// NewComparisonService creates a new ComparisonService; emitter may be nil.
func NewComparisonService(catalog *CatalogIndex, limits config.CompareConfig, emitter *NotificationEmitter, savingsAlertPercent int64) *ComparisonService {
	return &ComparisonService{
		catalog:             catalog,
		limits:              limits,
		emitter:             emitter,
		savingsAlertPercent: savingsAlertPercent,
	}
}

// Compare computes the ComparisonResult for a request
func (s *ComparisonService) Compare(ctx context.Context, req CompareRequest) (*models.ComparisonResult, error) {
	storeIDs, err := s.normalizeStores(req.StoreIDs)
	if err != nil {
		return nil, err
	}
	if err := validateWishList(req.WishList); err != nil {
		return nil, err
	}

	resolutions, err := s.resolveAll(ctx, storeIDs, req.WishList)
	if err != nil {
		return nil, err
	}

	grid := buildGrid(storeIDs, req.WishList, resolutions)
	result := &models.ComparisonResult{
		Stores:          make([]models.StoreBreakdown, len(storeIDs)),
		BestPrices:      make([]models.ItemBestPrice, 0, len(req.WishList)),
		GloballyMissing: make([]models.WishItem, 0),
	}

	for si := range storeIDs {
		result.Stores[si] = grid.breakdown(si)
	}

	all := grid.allStores()
	for i, item := range grid.items {
		if grid.offerCount(i) == 0 {
			result.GloballyMissing = append(result.GloballyMissing, item)
			continue
		}
		best := grid.cheapestIn(i, all)
		result.BestPrices = append(result.BestPrices, models.ItemBestPrice{
			ProductID:   item.ProductID,
			BestStoreID: storeIDs[best.storeIdx],
			UnitPrice:   best.unitPrice,
		})
	}

	maxPlanStores := s.limits.MaxPlanStores
	if maxPlanStores <= 0 || maxPlanStores > len(storeIDs) {
		maxPlanStores = len(storeIDs)
	}
	result.Plan = grid.toAllocationPlan(grid.allocate(maxPlanStores), maxPlanStores)

	s.maybeAlertSavings(req.UserID, result.Plan)
	return result, nil
}

// normalizeStores dedups and sorts store ids, enforcing the store count bounds.
func (s *ComparisonService) normalizeStores(ids []uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	minStores := s.limits.MinStores
	if minStores < 2 {
		minStores = 2
	}
	if len(out) < minStores {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientStores, len(out))
	}
	if s.limits.MaxStores > 0 && len(out) > s.limits.MaxStores {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrTooManyStores, len(out), s.limits.MaxStores)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out, nil
}

func validateWishList(items []models.WishItem) error {
	if len(items) == 0 {
		return ErrEmptyWishList
	}
	seen := make(map[uuid.UUID]struct{}, len(items))
	for i, item := range items {
		if item.ProductID == uuid.Nil {
			return fmt.Errorf("%w: item %d has no product id", ErrInvalidWishItem, i)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %d quantity must be at least 1", ErrInvalidWishItem, i)
		}
		if _, dup := seen[item.ProductID]; dup {
			return fmt.Errorf("%w: product %s listed twice", ErrInvalidWishItem, item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}
	return nil
}

// resolveAll resolves every store concurrently and joins. When several stores fail,
// the error of the lowest store id is returned.
func (s *ComparisonService) resolveAll(ctx context.Context, storeIDs []uuid.UUID, wishList []models.WishItem) ([]*BatchResolution, error) {
	resolutions := make([]*BatchResolution, len(storeIDs))
	errs := make([]error, len(storeIDs))

	var g errgroup.Group
	for i, storeID := range storeIDs {
		i, storeID := i, storeID
		g.Go(func() error {
			res, err := s.catalog.ResolveBatch(ctx, storeID, wishList)
			resolutions[i] = res
			errs[i] = err
			return err
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			if !IsCallerError(err) {
				logger.Error("ComparisonService: store resolution failed: %v", err)
			}
			return nil, err
		}
	}
	return resolutions, nil
}

func buildGrid(storeIDs []uuid.UUID, wishList []models.WishItem, resolutions []*BatchResolution) *priceGrid {
	itemIdx := make(map[uuid.UUID]int, len(wishList))
	for i, item := range wishList {
		itemIdx[item.ProductID] = i
	}

	grid := &priceGrid{
		storeIDs: storeIDs,
		items:    wishList,
		offers:   make([][]*offer, len(wishList)),
	}
	for i := range grid.offers {
		grid.offers[i] = make([]*offer, len(storeIDs))
	}

	for si, res := range resolutions {
		for _, m := range res.Matches {
			i, ok := itemIdx[m.Item.ProductID]
			if !ok {
				continue
			}
			grid.offers[i][si] = &offer{
				storeIdx:  si,
				listingID: m.Listing.ID,
				unitPrice: m.Listing.Price,
			}
		}
	}
	return grid
}

// breakdown computes one store's matches, misses, subtotal and coverage.
func (g *priceGrid) breakdown(si int) models.StoreBreakdown {
	b := models.StoreBreakdown{
		StoreID:  g.storeIDs[si],
		Matches:  make([]models.ListingMatch, 0, len(g.items)),
		Missing:  make([]models.WishItem, 0),
		Subtotal: decimal.Zero,
	}
	for i, item := range g.items {
		o := g.offers[i][si]
		if o == nil {
			b.Missing = append(b.Missing, item)
			continue
		}
		line := lineTotal(o.unitPrice, item.Quantity)
		b.Matches = append(b.Matches, models.ListingMatch{
			Item:      item,
			ListingID: o.listingID,
			UnitPrice: o.unitPrice,
			LineTotal: line,
		})
		b.Subtotal = b.Subtotal.Add(line)
	}
	if len(g.items) > 0 {
		b.Coverage = float64(len(b.Matches)) / float64(len(g.items))
	}
	return b
}

func (s *ComparisonService) maybeAlertSavings(userID *uuid.UUID, plan models.AllocationPlan) {
	if userID == nil || s.emitter == nil || s.savingsAlertPercent <= 0 {
		return
	}
	if plan.Savings == nil || !plan.Savings.IsPositive() || len(plan.StoresUsed) < 2 {
		return
	}
	if plan.SavingsPercent < s.savingsAlertPercent {
		return
	}
	s.emitter.SplitSavings(*userID, plan)
}
