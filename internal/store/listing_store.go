package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/models"
	"github.com/groceryscout/backend/internal/services"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListingStore reads stores and listings from Postgres
type ListingStore struct {
	db *gorm.DB
}

// NewListingStore creates a new ListingStore
func NewListingStore(db *gorm.DB) *ListingStore {
	return &ListingStore{db: db}
}

// StoreExists reports whether an active store with the id exists
func (s *ListingStore) StoreExists(ctx context.Context, storeID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("id = ? AND active = ?", storeID, true).
		Count(&count).Error
	if err != nil {
		return false, classify("store exists", err, nil)
	}
	return count > 0, nil
}

// Get returns the listing of one product at one store
func (s *ListingStore) Get(ctx context.Context, storeID, productID uuid.UUID) (*models.StoreListing, error) {
	var listing models.StoreListing
	err := s.db.WithContext(ctx).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		First(&listing).Error
	if err != nil {
		return nil, classify("get listing", err, services.ErrListingNotFound)
	}
	return &listing, nil
}

// BatchGet returns the store's listings for the given products in one query.
// Products without a listing are simply absent from the result.
func (s *ListingStore) BatchGet(ctx context.Context, storeID uuid.UUID, productIDs []uuid.UUID) ([]models.StoreListing, error) {
	listings := make([]models.StoreListing, 0, len(productIDs))
	if len(productIDs) == 0 {
		return listings, nil
	}
	err := s.db.WithContext(ctx).
		Where("store_id = ? AND product_id IN ?", storeID, productIDs).
		Find(&listings).Error
	if err != nil {
		return nil, classify("batch get listings", err, nil)
	}
	return listings, nil
}

// GetByID returns a listing by primary key
func (s *ListingStore) GetByID(ctx context.Context, listingID uuid.UUID) (*models.StoreListing, error) {
	var listing models.StoreListing
	if err := s.db.WithContext(ctx).First(&listing, "id = ?", listingID).Error; err != nil {
		return nil, classify("get listing", err, services.ErrListingNotFound)
	}
	return &listing, nil
}

// UpdatePriceWithHistory locks the listing row, writes the new price and inserts the
// history entry built by record from the replaced price, all in one transaction.
// A nil entry skips the insert; any failure leaves both the price and history untouched.
func (s *ListingStore) UpdatePriceWithHistory(ctx context.Context, listingID uuid.UUID, newPrice decimal.Decimal, at time.Time, record services.HistoryRecorder) (*services.PriceUpdate, error) {
	var (
		listing models.StoreListing
		update  services.PriceUpdate
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&listing, "id = ?", listingID).Error; err != nil {
			return err
		}
		update.OldPrice = listing.Price

		if err := tx.Model(&models.StoreListing{}).
			Where("id = ?", listingID).
			Updates(map[string]interface{}{
				"price":      newPrice,
				"updated_at": at,
			}).Error; err != nil {
			return err
		}

		if entry := record(listing.Price); entry != nil {
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
			update.Entry = entry
		}

		listing.Price = newPrice
		listing.UpdatedAt = at
		return nil
	})
	if err != nil {
		return nil, classify("update listing price", err, services.ErrListingNotFound)
	}

	update.Listing = &listing
	return &update, nil
}

// ActiveStoreIDs lists every active store; the worker subscribes the vendor feed to them.
func (s *ListingStore) ActiveStoreIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("active = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, classify("active stores", err, nil)
	}
	return ids, nil
}
