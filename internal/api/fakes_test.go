package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/models"
	"github.com/groceryscout/backend/internal/services"
	"github.com/shopspring/decimal"
)

type memListings struct {
	mu       sync.Mutex
	stores   map[uuid.UUID]bool
	listings map[uuid.UUID]*models.StoreListing
	history  *memHistory
}

func newMemListings(history *memHistory) *memListings {
	return &memListings{
		stores:   make(map[uuid.UUID]bool),
		listings: make(map[uuid.UUID]*models.StoreListing),
		history:  history,
	}
}

func (m *memListings) add(storeID, productID uuid.UUID, price string) *models.StoreListing {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[storeID] = true
	l := &models.StoreListing{
		ID:        uuid.New(),
		StoreID:   storeID,
		ProductID: productID,
		Price:     decimal.RequireFromString(price),
		Available: true,
	}
	m.listings[l.ID] = l
	return l
}

func (m *memListings) StoreExists(_ context.Context, storeID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stores[storeID], nil
}

func (m *memListings) Get(_ context.Context, storeID, productID uuid.UUID) (*models.StoreListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.listings {
		if l.StoreID == storeID && l.ProductID == productID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, services.ErrListingNotFound
}

func (m *memListings) BatchGet(_ context.Context, storeID uuid.UUID, productIDs []uuid.UUID) ([]models.StoreListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StoreListing
	for _, id := range productIDs {
		for _, l := range m.listings {
			if l.StoreID == storeID && l.ProductID == id {
				out = append(out, *l)
			}
		}
	}
	return out, nil
}

func (m *memListings) GetByID(_ context.Context, listingID uuid.UUID) (*models.StoreListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[listingID]
	if !ok {
		return nil, services.ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memListings) UpdatePriceWithHistory(ctx context.Context, listingID uuid.UUID, newPrice decimal.Decimal, at time.Time, record services.HistoryRecorder) (*services.PriceUpdate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[listingID]
	if !ok {
		return nil, services.ErrListingNotFound
	}
	old := l.Price
	entry := record(old)
	if entry != nil {
		if err := m.history.Append(ctx, entry); err != nil {
			return nil, err
		}
	}
	l.Price = newPrice
	l.UpdatedAt = at
	cp := *l
	return &services.PriceUpdate{Listing: &cp, OldPrice: old, Entry: entry}, nil
}

type memHistory struct {
	mu      sync.Mutex
	entries []models.PriceHistoryEntry
}

func (m *memHistory) Append(_ context.Context, entry *models.PriceHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uint64(len(m.entries) + 1)
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memHistory) Query(_ context.Context, listingID uuid.UUID, limit int, order services.SortOrder) ([]models.PriceHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PriceHistoryEntry
	for _, e := range m.entries {
		if e.ListingID == listingID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if order == services.OrderOldestFirst {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memNotifications struct {
	mu            sync.Mutex
	notifications []models.Notification
}

func (m *memNotifications) Create(_ context.Context, userID uuid.UUID, t models.NotificationType, title, message string) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := models.Notification{ID: uuid.New(), UserID: userID, Type: t, Title: title, Message: message, CreatedAt: time.Now()}
	m.notifications = append(m.notifications, n)
	return &n, nil
}

func (m *memNotifications) ListUnread(_ context.Context, userID uuid.UUID) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Notification, 0)
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memNotifications) MarkRead(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].ID == id && m.notifications[i].UserID == userID {
			m.notifications[i].Read = true
		}
	}
	return nil
}

func (m *memNotifications) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].UserID == userID {
			m.notifications[i].Read = true
		}
	}
	return nil
}

func (m *memNotifications) all() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Notification(nil), m.notifications...)
}

type memSaved struct {
	mu    sync.Mutex
	saved map[uuid.UUID][]uuid.UUID // user -> products
}

func (m *memSaved) Save(_ context.Context, userID, productID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.saved[userID] {
		if p == productID {
			return nil
		}
	}
	m.saved[userID] = append(m.saved[userID], productID)
	return nil
}

func (m *memSaved) Remove(_ context.Context, userID, productID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	products := m.saved[userID]
	for i, p := range products {
		if p == productID {
			m.saved[userID] = append(products[:i], products[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memSaved) List(_ context.Context, userID uuid.UUID) ([]models.SavedProductItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SavedProductItem, 0)
	for _, p := range m.saved[userID] {
		out = append(out, models.SavedProductItem{SavedProduct: models.SavedProduct{UserID: userID, ProductID: p}})
	}
	return out, nil
}

func (m *memSaved) IsSaved(_ context.Context, userID, productID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.saved[userID] {
		if p == productID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memSaved) SaverIDs(_ context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uuid.UUID
	for userID, products := range m.saved {
		for _, p := range products {
			if p == productID {
				out = append(out, userID)
			}
		}
	}
	return out, nil
}

func (m *memSaved) ProductName(context.Context, uuid.UUID) (string, error) {
	return "Test Product", nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (m *memUsers) Upsert(_ context.Context, clerkID, email, displayName string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[clerkID]
	if !ok {
		u = &models.User{ID: uuid.New(), ClerkID: clerkID, CreatedAt: time.Now()}
		m.users[clerkID] = u
	}
	if email != "" {
		u.Email = email
	}
	if displayName != "" {
		u.DisplayName = displayName
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByClerkID(_ context.Context, clerkID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[clerkID]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}
