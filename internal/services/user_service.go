/**
 * @description
 * User Service.
 * Keeps the local user row in sync with the Clerk identity that signed the request.
 */

package services

import (
	"context"
	"strings"

	"github.com/groceryscout/backend/internal/logger"
	"github.com/groceryscout/backend/internal/models"
)

// UserService handles user synchronization and lookup
type UserService struct {
	store UserStore
}

// NewUserService creates a new UserService
func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// SyncUser creates the user on first sign-in and refreshes email/display name afterwards
func (s *UserService) SyncUser(ctx context.Context, clerkID, email, displayName string) (*models.User, error) {
	user, err := s.store.Upsert(ctx, clerkID, strings.TrimSpace(email), strings.TrimSpace(displayName))
	if err != nil {
		logger.Error("UserService: Failed to sync user %s: %v", clerkID, err)
		return nil, err
	}
	return user, nil
}

// GetByClerkID returns the local user for a Clerk subject
func (s *UserService) GetByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	return s.store.GetByClerkID(ctx, clerkID)
}
