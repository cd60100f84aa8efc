/**
 * @description
 * Saved Product Service.
 * Manages the products a shopper follows for price-drop alerts.
 */

package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/logger"
	"github.com/groceryscout/backend/internal/models"
)

// SavedProductService handles saved product operations
type SavedProductService struct {
	store SavedProductStore
}

// NewSavedProductService creates a new SavedProductService
func NewSavedProductService(store SavedProductStore) *SavedProductService {
	return &SavedProductService{store: store}
}

// SaveProduct adds a product to the user's saved list
func (s *SavedProductService) SaveProduct(ctx context.Context, userID, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return nil
	}
	if err := s.store.Save(ctx, userID, productID); err != nil {
		logger.Error("SavedProductService: Failed to save product: %v", err)
		return err
	}
	return nil
}

// RemoveProduct removes a product from the user's saved list
func (s *SavedProductService) RemoveProduct(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.store.Remove(ctx, userID, productID); err != nil {
		logger.Error("SavedProductService: Failed to remove product: %v", err)
		return err
	}
	return nil
}

// GetSavedProducts returns saved products with their cheapest current offer
func (s *SavedProductService) GetSavedProducts(ctx context.Context, userID uuid.UUID) ([]models.SavedProductItem, error) {
	return s.store.List(ctx, userID)
}

// ToggleProduct toggles saved status and returns the new state
func (s *SavedProductService) ToggleProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	saved, err := s.store.IsSaved(ctx, userID, productID)
	if err != nil {
		return false, err
	}

	if saved {
		return false, s.RemoveProduct(ctx, userID, productID)
	}
	return true, s.SaveProduct(ctx, userID, productID)
}
