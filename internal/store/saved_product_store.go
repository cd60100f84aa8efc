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

// SavedProductStore persists saved products
type SavedProductStore struct {
	db *gorm.DB
}

// NewSavedProductStore creates a new SavedProductStore
func NewSavedProductStore(db *gorm.DB) *SavedProductStore {
	return &SavedProductStore{db: db}
}

// Save is idempotent: saving twice keeps one row.
func (s *SavedProductStore) Save(ctx context.Context, userID, productID uuid.UUID) error {
	saved := &models.SavedProduct{
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(saved).Error
	return classify("save product", err, services.ErrListingNotFound)
}

// Remove deletes the saved row if present
func (s *SavedProductStore) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.SavedProduct{}).Error
	return classify("remove saved product", err, nil)
}

type savedProductRow struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ProductID   uuid.UUID
	CreatedAt   time.Time
	Name        string
	ImageURL    string
	BestPrice   decimal.NullDecimal
	BestStoreID uuid.NullUUID
}

const savedProductsQuery = `
SELECT sp.id, sp.user_id, sp.product_id, sp.created_at,
       p.name, p.image_url,
       best.price AS best_price, best.store_id AS best_store_id
FROM saved_products sp
JOIN products p ON p.id = sp.product_id
LEFT JOIN LATERAL (
    SELECT sl.price, sl.store_id
    FROM store_listings sl
    JOIN stores st ON st.id = sl.store_id AND st.active
    WHERE sl.product_id = sp.product_id AND sl.available
    ORDER BY sl.price ASC, sl.store_id ASC
    LIMIT 1
) best ON true
WHERE sp.user_id = ?
ORDER BY sp.created_at DESC`

// List returns the user's saved products with their cheapest available offer
func (s *SavedProductStore) List(ctx context.Context, userID uuid.UUID) ([]models.SavedProductItem, error) {
	var rows []savedProductRow
	if err := s.db.WithContext(ctx).Raw(savedProductsQuery, userID).Scan(&rows).Error; err != nil {
		return nil, classify("list saved products", err, nil)
	}

	items := make([]models.SavedProductItem, len(rows))
	for i, row := range rows {
		items[i] = models.SavedProductItem{
			SavedProduct: models.SavedProduct{
				ID:        row.ID,
				UserID:    row.UserID,
				ProductID: row.ProductID,
				CreatedAt: row.CreatedAt,
			},
			Name:     row.Name,
			ImageURL: row.ImageURL,
		}
		if row.BestPrice.Valid {
			price := row.BestPrice.Decimal
			items[i].BestPrice = &price
		}
		if row.BestStoreID.Valid {
			storeID := row.BestStoreID.UUID
			items[i].BestStoreID = &storeID
		}
	}
	return items, nil
}

// IsSaved checks if the user saved the product
func (s *SavedProductStore) IsSaved(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.SavedProduct{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, classify("is saved", err, nil)
	}
	return count > 0, nil
}

// SaverIDs returns the ids of every user who saved the product
func (s *SavedProductStore) SaverIDs(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.SavedProduct{}).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, classify("saver ids", err, nil)
	}
	return userIDs, nil
}

// ProductName returns the catalog name of a product, or "" when unknown
func (s *SavedProductStore) ProductName(ctx context.Context, productID uuid.UUID) (string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Limit(1).
		Pluck("name", &names).Error
	if err != nil {
		return "", classify("product name", err, nil)
	}
	if len(names) == 0 {
		return "", nil
	}
	return names[0], nil
}
