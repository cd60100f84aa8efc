package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/config"
	"github.com/groceryscout/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compareLimits(maxPlan int) config.CompareConfig {
	return config.CompareConfig{MinStores: 2, MaxStores: 3, MaxPlanStores: maxPlan}
}

func newComparison(listings *fakeListingStore, maxPlan int) *ComparisonService {
	return NewComparisonService(NewCatalogIndex(listings), compareLimits(maxPlan), nil, 0)
}

func TestCompareSubtotalsAndCoverage(t *testing.T) {
	listings := newFakeListingStore()
	stores := orderedStoreIDs(2)
	a, b := stores[0], stores[1]
	milk, bread, apples := uuid.New(), uuid.New(), uuid.New()

	listings.add(a, milk, "1.25", true)
	listings.add(a, bread, "2.10", true)
	listings.add(b, milk, "1.10", true)
	listings.add(b, apples, "0.35", true)
	listings.add(b, bread, "1.90", false)

	wish := []models.WishItem{
		{ProductID: milk, Quantity: 2},
		{ProductID: bread, Quantity: 1},
		{ProductID: apples, Quantity: 6},
	}

	res, err := newComparison(listings, 2).Compare(context.Background(), CompareRequest{
		StoreIDs: []uuid.UUID{b, a},
		WishList: wish,
	})
	require.NoError(t, err)
	require.Len(t, res.Stores, 2)

	storeA, storeB := res.Stores[0], res.Stores[1]
	assert.Equal(t, a, storeA.StoreID, "stores are ordered by id")

	assert.True(t, storeA.Subtotal.Equal(dec("4.60")), "got %s", storeA.Subtotal)
	assert.InDelta(t, 2.0/3.0, storeA.Coverage, 1e-9)
	require.Len(t, storeA.Missing, 1)
	assert.Equal(t, apples, storeA.Missing[0].ProductID)

	assert.True(t, storeB.Subtotal.Equal(dec("4.30")), "got %s", storeB.Subtotal)
	require.Len(t, storeB.Missing, 1)
	assert.Equal(t, bread, storeB.Missing[0].ProductID)

	for _, s := range res.Stores {
		sum := dec("0")
		for _, m := range s.Matches {
			sum = sum.Add(m.UnitPrice.Mul(decimal.NewFromInt(int64(m.Item.Quantity))))
		}
		assert.True(t, sum.Equal(s.Subtotal))
	}

	require.Len(t, res.BestPrices, 3)
	assert.Equal(t, b, res.BestPrices[0].BestStoreID)
	assert.Equal(t, a, res.BestPrices[1].BestStoreID)
	assert.Equal(t, b, res.BestPrices[2].BestStoreID)

	assert.True(t, res.Plan.TotalCost.Equal(dec("6.40")), "got %s", res.Plan.TotalCost)
	assert.Empty(t, res.Plan.Unassigned)
	assert.Len(t, res.Plan.StoresUsed, 2)
}

func TestCompareTieBreaksOnLowestStoreID(t *testing.T) {
	listings := newFakeListingStore()
	stores := orderedStoreIDs(3)
	eggs := uuid.New()
	listings.add(stores[2], eggs, "2.00", true)
	listings.add(stores[1], eggs, "2.00", true)
	listings.add(stores[0], eggs, "2.50", true)

	res, err := newComparison(listings, 2).Compare(context.Background(), CompareRequest{
		StoreIDs: stores,
		WishList: []models.WishItem{{ProductID: eggs, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, stores[1], res.BestPrices[0].BestStoreID)
	assert.Equal(t, stores[1], res.Plan.Assignments[0].StoreID)
}

func TestCompareGloballyMissingItem(t *testing.T) {
	listings := newFakeListingStore()
	stores := orderedStoreIDs(2)
	rice, caviar := uuid.New(), uuid.New()
	listings.add(stores[0], rice, "3.00", true)
	listings.add(stores[1], rice, "2.80", true)

	res, err := newComparison(listings, 2).Compare(context.Background(), CompareRequest{
		StoreIDs: stores,
		WishList: []models.WishItem{{ProductID: rice, Quantity: 1}, {ProductID: caviar, Quantity: 1}},
	})
	require.NoError(t, err)

	require.Len(t, res.GloballyMissing, 1)
	assert.Equal(t, caviar, res.GloballyMissing[0].ProductID)
	for _, s := range res.Stores {
		assert.Contains(t, s.Missing, models.WishItem{ProductID: caviar, Quantity: 1})
	}
	assert.True(t, res.Stores[0].Subtotal.Equal(dec("3.00")))
	assert.True(t, res.Plan.TotalCost.Equal(dec("2.80")))
	assert.Len(t, res.Plan.Assignments, 1)
	assert.Empty(t, res.Plan.Unassigned)
}

func TestCompareRespectsStoreCap(t *testing.T) {
	listings := newFakeListingStore()
	stores := orderedStoreIDs(3)
	a, b, c := stores[0], stores[1], stores[2]
	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()

	listings.add(a, p1, "1.00", true)
	listings.add(a, p2, "3.00", true)
	listings.add(a, p3, "3.00", true)
	listings.add(b, p1, "2.00", true)
	listings.add(b, p2, "1.00", true)
	listings.add(b, p3, "2.50", true)
	listings.add(c, p1, "2.00", true)
	listings.add(c, p2, "2.00", true)
	listings.add(c, p3, "1.00", true)

	wish := []models.WishItem{{ProductID: p1, Quantity: 1}, {ProductID: p2, Quantity: 1}, {ProductID: p3, Quantity: 1}}

	uncapped, err := newComparison(listings, 3).Compare(context.Background(), CompareRequest{StoreIDs: stores, WishList: wish})
	require.NoError(t, err)
	assert.Len(t, uncapped.Plan.StoresUsed, 3)
	assert.True(t, uncapped.Plan.TotalCost.Equal(dec("3.00")))

	capped, err := newComparison(listings, 2).Compare(context.Background(), CompareRequest{StoreIDs: stores, WishList: wish})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(capped.Plan.StoresUsed), 2)
	assert.True(t, capped.Plan.TotalCost.Equal(dec("4.00")), "got %s", capped.Plan.TotalCost)
	// {a,c} and {b,c} both cost 4.00; the lexicographically first retained set wins
	assert.Equal(t, []uuid.UUID{a, c}, capped.Plan.StoresUsed)
}

func TestCompareCapKeepsCoverageOverPrice(t *testing.T) {
	listings := newFakeListingStore()
	stores := orderedStoreIDs(2)
	a, b := stores[0], stores[1]
	p1, p2 := uuid.New(), uuid.New()

	listings.add(a, p1, "1.00", true)
	listings.add(b, p1, "5.00", true)
	listings.add(b, p2, "5.00", true)

	res, err := newComparison(listings, 1).Compare(context.Background(), CompareRequest{
		StoreIDs: stores,
		WishList: []models.WishItem{{ProductID: p1, Quantity: 1}, {ProductID: p2, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b}, res.Plan.StoresUsed)
	assert.Empty(t, res.Plan.Unassigned)
	assert.True(t, res.Plan.TotalCost.Equal(dec("10.00")))
}

func TestCompareIsDeterministic(t *testing.T) {
	listings := newFakeListingStore()
	stores := orderedStoreIDs(3)
	var wish []models.WishItem
	prices := [][]string{
		{"1.00", "1.00", "1.00"},
		{"2.49", "2.50", "2.48"},
		{"0.99", "", "0.99"},
		{"", "7.00", "6.50"},
	}
	for _, row := range prices {
		p := uuid.New()
		wish = append(wish, models.WishItem{ProductID: p, Quantity: 3})
		for s, price := range row {
			if price != "" {
				listings.add(stores[s], p, price, true)
			}
		}
	}

	svc := newComparison(listings, 2)
	first, err := svc.Compare(context.Background(), CompareRequest{StoreIDs: stores, WishList: wish})
	require.NoError(t, err)
	second, err := svc.Compare(context.Background(), CompareRequest{StoreIDs: []uuid.UUID{stores[2], stores[0], stores[1]}, WishList: wish})
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestCompareCallerErrors(t *testing.T) {
	listings := newFakeListingStore()
	stores := orderedStoreIDs(4)
	for _, s := range stores {
		listings.addStore(s)
	}
	item := []models.WishItem{{ProductID: uuid.New(), Quantity: 1}}
	svc := newComparison(listings, 2)
	ctx := context.Background()

	_, err := svc.Compare(ctx, CompareRequest{StoreIDs: []uuid.UUID{stores[0]}, WishList: item})
	assert.ErrorIs(t, err, ErrInsufficientStores)

	_, err = svc.Compare(ctx, CompareRequest{StoreIDs: []uuid.UUID{stores[0], stores[0]}, WishList: item})
	assert.ErrorIs(t, err, ErrInsufficientStores, "duplicates do not count as distinct stores")

	_, err = svc.Compare(ctx, CompareRequest{StoreIDs: stores, WishList: item})
	assert.ErrorIs(t, err, ErrTooManyStores)

	_, err = svc.Compare(ctx, CompareRequest{StoreIDs: stores[:2]})
	assert.ErrorIs(t, err, ErrEmptyWishList)

	_, err = svc.Compare(ctx, CompareRequest{StoreIDs: stores[:2], WishList: []models.WishItem{{ProductID: uuid.New(), Quantity: 0}}})
	assert.ErrorIs(t, err, ErrInvalidWishItem)

	dup := uuid.New()
	_, err = svc.Compare(ctx, CompareRequest{StoreIDs: stores[:2], WishList: []models.WishItem{{ProductID: dup, Quantity: 1}, {ProductID: dup, Quantity: 2}}})
	assert.ErrorIs(t, err, ErrInvalidWishItem)

	_, err = svc.Compare(ctx, CompareRequest{StoreIDs: []uuid.UUID{stores[0], uuid.New()}, WishList: item})
	assert.ErrorIs(t, err, ErrUnknownStore)
	assert.True(t, IsCallerError(err))
}

func TestCompareUpstreamFailure(t *testing.T) {
	listings := newFakeListingStore()
	stores := orderedStoreIDs(2)
	listings.addStore(stores[0])
	listings.addStore(stores[1])
	listings.failFor[stores[1]] = true

	_, err := newComparison(listings, 2).Compare(context.Background(), CompareRequest{
		StoreIDs: stores,
		WishList: []models.WishItem{{ProductID: uuid.New(), Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.False(t, IsCallerError(err))
}

func TestCompareEmitsSplitSavingsAlert(t *testing.T) {
	listings := newFakeListingStore()
	stores := orderedStoreIDs(2)
	p1, p2 := uuid.New(), uuid.New()
	listings.add(stores[0], p1, "1.00", true)
	listings.add(stores[0], p2, "10.00", true)
	listings.add(stores[1], p1, "10.00", true)
	listings.add(stores[1], p2, "1.00", true)

	notifications := &fakeNotificationStore{}
	dispatcher := NewDispatcher(16, 1, 0)
	dispatcher.Start(context.Background())
	emitter := NewNotificationEmitter(notifications, dispatcher)
	svc := NewComparisonService(NewCatalogIndex(listings), compareLimits(2), emitter, 10)

	userID := uuid.New()
	res, err := svc.Compare(context.Background(), CompareRequest{
		StoreIDs: stores,
		WishList: []models.WishItem{{ProductID: p1, Quantity: 1}, {ProductID: p2, Quantity: 1}},
		UserID:   &userID,
	})
	require.NoError(t, err)
	dispatcher.Close()

	require.NotNil(t, res.Plan.Savings)
	assert.True(t, res.Plan.Savings.Equal(dec("9.00")))
	assert.Equal(t, int64(82), res.Plan.SavingsPercent)

	sent := notifications.all()
	require.Len(t, sent, 1)
	assert.Equal(t, userID, sent[0].UserID)
	assert.Equal(t, models.NotificationTypeSplitSavings, sent[0].Type)
}
