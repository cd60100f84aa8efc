/**
 * @description
 * Collaborator interfaces the engine depends on.
 * Implementations live in internal/store (Postgres via GORM) and in tests (in-memory fakes).
 * Implementations must wrap transport/database failures with ErrUpstreamUnavailable.
 */

package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/models"
	"github.com/shopspring/decimal"
)

// SortOrder selects the timestamp ordering of history queries
type SortOrder string

const (
	OrderNewestFirst SortOrder = "desc"
	OrderOldestFirst SortOrder = "asc"
)

// ListingStore reads store listings and performs the price write path
type ListingStore interface {
	StoreExists(ctx context.Context, storeID uuid.UUID) (bool, error)
	Get(ctx context.Context, storeID, productID uuid.UUID) (*models.StoreListing, error)
	BatchGet(ctx context.Context, storeID uuid.UUID, productIDs []uuid.UUID) ([]models.StoreListing, error)
	GetByID(ctx context.Context, listingID uuid.UUID) (*models.StoreListing, error)
	// UpdatePriceWithHistory writes the new price and the history entry record builds
	// from the replaced price atomically. Nothing is persisted when either write fails.
	UpdatePriceWithHistory(ctx context.Context, listingID uuid.UUID, newPrice decimal.Decimal, at time.Time, record HistoryRecorder) (*PriceUpdate, error)
}

// HistoryRecorder builds the history entry for a transition away from oldPrice, or
// nil when nothing should be recorded.
type HistoryRecorder func(oldPrice decimal.Decimal) *models.PriceHistoryEntry

// HistoryStore persists price history entries
type HistoryStore interface {
	Append(ctx context.Context, entry *models.PriceHistoryEntry) error
	Query(ctx context.Context, listingID uuid.UUID, limit int, order SortOrder) ([]models.PriceHistoryEntry, error)
}

// NotificationStore persists user notifications
type NotificationStore interface {
	Create(ctx context.Context, userID uuid.UUID, notificationType models.NotificationType, title, message string) (*models.Notification, error)
	ListUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

// UserStore links Clerk identities to local user rows
type UserStore interface {
	Upsert(ctx context.Context, clerkID, email, displayName string) (*models.User, error)
	GetByClerkID(ctx context.Context, clerkID string) (*models.User, error)
}

// SavedProductStore persists shopper saved products
type SavedProductStore interface {
	Save(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]models.SavedProductItem, error)
	IsSaved(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	SaverIDs(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error)
	ProductName(ctx context.Context, productID uuid.UUID) (string, error)
}
