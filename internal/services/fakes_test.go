package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/models"
	"github.com/shopspring/decimal"
)

var errBoom = errors.New("connection refused")

type fakeListingStore struct {
	mu       sync.Mutex
	stores   map[uuid.UUID]bool
	listings map[uuid.UUID]*models.StoreListing
	failFor  map[uuid.UUID]bool
	// history receives entries written by UpdatePriceWithHistory
	history *fakeHistoryStore
}

func newFakeListingStore() *fakeListingStore {
	return &fakeListingStore{
		stores:   make(map[uuid.UUID]bool),
		listings: make(map[uuid.UUID]*models.StoreListing),
		failFor:  make(map[uuid.UUID]bool),
		history:  &fakeHistoryStore{},
	}
}

func (f *fakeListingStore) addStore(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stores[id] = true
}

func (f *fakeListingStore) add(storeID, productID uuid.UUID, price string, available bool) *models.StoreListing {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stores[storeID] = true
	l := &models.StoreListing{
		ID:        uuid.New(),
		StoreID:   storeID,
		ProductID: productID,
		Price:     decimal.RequireFromString(price),
		Available: available,
	}
	f.listings[l.ID] = l
	return l
}

func (f *fakeListingStore) StoreExists(_ context.Context, storeID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[storeID] {
		return false, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, errBoom)
	}
	return f.stores[storeID], nil
}

func (f *fakeListingStore) Get(_ context.Context, storeID, productID uuid.UUID) (*models.StoreListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.listings {
		if l.StoreID == storeID && l.ProductID == productID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, ErrListingNotFound
}

func (f *fakeListingStore) BatchGet(_ context.Context, storeID uuid.UUID, productIDs []uuid.UUID) ([]models.StoreListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[storeID] {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, errBoom)
	}
	wanted := make(map[uuid.UUID]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}
	var out []models.StoreListing
	for _, l := range f.listings {
		if l.StoreID == storeID && wanted[l.ProductID] {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeListingStore) GetByID(_ context.Context, listingID uuid.UUID) (*models.StoreListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[listingID]
	if !ok {
		return nil, ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeListingStore) UpdatePriceWithHistory(ctx context.Context, listingID uuid.UUID, newPrice decimal.Decimal, at time.Time, record HistoryRecorder) (*PriceUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[listingID]
	if !ok {
		return nil, ErrListingNotFound
	}
	old := l.Price
	entry := record(old)
	if entry != nil {
		// the price only moves when the entry lands, like the store transaction
		if err := f.history.Append(ctx, entry); err != nil {
			return nil, err
		}
	}
	l.Price = newPrice
	l.UpdatedAt = at
	cp := *l
	return &PriceUpdate{Listing: &cp, OldPrice: old, Entry: entry}, nil
}

type fakeHistoryStore struct {
	mu      sync.Mutex
	entries []models.PriceHistoryEntry
	err     error
}

func (f *fakeHistoryStore) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeHistoryStore) all() []models.PriceHistoryEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.PriceHistoryEntry(nil), f.entries...)
}

func (f *fakeHistoryStore) Append(_ context.Context, entry *models.PriceHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	entry.ID = uint64(len(f.entries) + 1)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeHistoryStore) Query(_ context.Context, listingID uuid.UUID, limit int, order SortOrder) ([]models.PriceHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PriceHistoryEntry
	for _, e := range f.entries {
		if e.ListingID == listingID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if order == OrderOldestFirst {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeNotificationStore struct {
	mu            sync.Mutex
	notifications []models.Notification
	err           error
	delay         time.Duration
}

func (f *fakeNotificationStore) Create(ctx context.Context, userID uuid.UUID, notificationType models.NotificationType, title, message string) (*models.Notification, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	n := models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      notificationType,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}
	f.notifications = append(f.notifications, n)
	return &n, nil
}

func (f *fakeNotificationStore) ListUnread(_ context.Context, userID uuid.UUID) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.notifications {
		if n.UserID == userID && !n.Read {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkRead(_ context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notifications {
		if f.notifications[i].ID == id && f.notifications[i].UserID == userID {
			f.notifications[i].Read = true
		}
	}
	return nil
}

func (f *fakeNotificationStore) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notifications {
		if f.notifications[i].UserID == userID {
			f.notifications[i].Read = true
		}
	}
	return nil
}

func (f *fakeNotificationStore) all() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Notification(nil), f.notifications...)
}

type fakeSavedStore struct {
	mu    sync.Mutex
	saved map[uuid.UUID][]uuid.UUID // product -> users
	names map[uuid.UUID]string
}

func newFakeSavedStore() *fakeSavedStore {
	return &fakeSavedStore{
		saved: make(map[uuid.UUID][]uuid.UUID),
		names: make(map[uuid.UUID]string),
	}
}

func (f *fakeSavedStore) Save(_ context.Context, userID, productID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.saved[productID] {
		if u == userID {
			return nil
		}
	}
	f.saved[productID] = append(f.saved[productID], userID)
	return nil
}

func (f *fakeSavedStore) Remove(_ context.Context, userID, productID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := f.saved[productID]
	for i, u := range users {
		if u == userID {
			f.saved[productID] = append(users[:i], users[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeSavedStore) List(_ context.Context, userID uuid.UUID) ([]models.SavedProductItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SavedProductItem
	for productID, users := range f.saved {
		for _, u := range users {
			if u == userID {
				out = append(out, models.SavedProductItem{
					SavedProduct: models.SavedProduct{UserID: userID, ProductID: productID},
					Name:         f.names[productID],
				})
			}
		}
	}
	return out, nil
}

func (f *fakeSavedStore) IsSaved(_ context.Context, userID, productID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.saved[productID] {
		if u == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSavedStore) SaverIDs(_ context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.saved[productID]...), nil
}

func (f *fakeSavedStore) ProductName(_ context.Context, productID uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.names[productID], nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []models.PriceDropEvent
}

func (r *recordingSink) PriceDropped(event models.PriceDropEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSink) all() []models.PriceDropEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.PriceDropEvent(nil), r.events...)
}

// orderedStoreIDs returns n store ids in ascending string order.
func orderedStoreIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
