/**
 * @description
 * Catalog Index.
 * Resolves canonical product ids to store-specific listings. Matching is exact on
 * product id; read-only.
 *
 * @dependencies
 * - backend/internal/models
 */

package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/models"
)

// ResolvedItem pairs a wish item with its available listing
type ResolvedItem struct {
	Item    models.WishItem
	Listing models.StoreListing
}

// BatchResolution is the outcome of resolving a wish list against one store
type BatchResolution struct {
	StoreID uuid.UUID
	Matches []ResolvedItem
	// Missing holds items with no listing or with an unavailable listing.
	Missing []models.WishItem
}

// CatalogIndex resolves listings per store
type CatalogIndex struct {
	listings ListingStore
}

// NewCatalogIndex creates a new CatalogIndex
func NewCatalogIndex(listings ListingStore) *CatalogIndex {
	return &CatalogIndex{listings: listings}
}

// Resolve returns the store's current listing for a product, available or not.
func (c *CatalogIndex) Resolve(ctx context.Context, storeID, productID uuid.UUID) (*models.StoreListing, error) {
	listing, err := c.listings.Get(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// ResolveBatch splits a wish list into matches and misses for one store.
// Output order follows the wish list.
func (c *CatalogIndex) ResolveBatch(ctx context.Context, storeID uuid.UUID, wishList []models.WishItem) (*BatchResolution, error) {
	exists, err := c.listings.StoreExists(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, storeID)
	}

	productIDs := make([]uuid.UUID, len(wishList))
	for i, item := range wishList {
		productIDs[i] = item.ProductID
	}

	listings, err := c.listings.BatchGet(ctx, storeID, productIDs)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[uuid.UUID]models.StoreListing, len(listings))
	for _, l := range listings {
		if l.StoreID != storeID {
			continue
		}
		byProduct[l.ProductID] = l
	}

	res := &BatchResolution{
		StoreID: storeID,
		Matches: make([]ResolvedItem, 0, len(wishList)),
		Missing: make([]models.WishItem, 0),
	}
	for _, item := range wishList {
		l, ok := byProduct[item.ProductID]
		if !ok || !l.Available {
			res.Missing = append(res.Missing, item)
			continue
		}
		res.Matches = append(res.Matches, ResolvedItem{Item: item, Listing: l})
	}

	return res, nil
}
