package store

import (
	"context"
	"time"

	"github.com/groceryscout/backend/internal/models"
	"github.com/groceryscout/backend/internal/services"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserStore persists users keyed by Clerk id
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a new UserStore
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Upsert inserts the user or refreshes email/display name, then returns the stored row
func (s *UserStore) Upsert(ctx context.Context, clerkID, email, displayName string) (*models.User, error) {
	now := time.Now()
	user := models.User{
		ClerkID:     clerkID,
		Email:       email,
		DisplayName: displayName,
		UpdatedAt:   now,
	}

	updates := map[string]interface{}{
		"updated_at": now,
	}
	if email != "" {
		updates["email"] = email
	}
	if displayName != "" {
		updates["display_name"] = displayName
	}

	// Postgres ON CONFLICT keeps the original id and created_at
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "clerk_id"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(&user).Error
	if err != nil {
		return nil, classify("upsert user", err, nil)
	}

	return s.GetByClerkID(ctx, clerkID)
}

// GetByClerkID returns the user or services.ErrUserNotFound
func (s *UserStore) GetByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("clerk_id = ?", clerkID).First(&user).Error; err != nil {
		return nil, classify("get user", err, services.ErrUserNotFound)
	}
	return &user, nil
}
