package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

// randomScenario builds a store/listing snapshot from a seed: 2-3 stores, 1-6 items,
// prices in cents with frequent ties and holes.
type randomScenario struct {
	listings *fakeListingStore
	stores   []uuid.UUID
	wish     []models.WishItem
	prices   [][]*decimal.Decimal // [item][store]
	maxPlan  int
}

func newRandomScenario(seed int64) randomScenario {
	r := rand.New(rand.NewSource(seed))
	nStores := 2 + r.Intn(2)
	nItems := 1 + r.Intn(6)

	sc := randomScenario{
		listings: newFakeListingStore(),
		stores:   orderedStoreIDs(nStores),
		prices:   make([][]*decimal.Decimal, nItems),
		maxPlan:  1 + r.Intn(nStores),
	}
	for _, s := range sc.stores {
		sc.listings.addStore(s)
	}
	for i := 0; i < nItems; i++ {
		p := uuid.New()
		sc.wish = append(sc.wish, models.WishItem{ProductID: p, Quantity: 1 + r.Intn(4)})
		sc.prices[i] = make([]*decimal.Decimal, nStores)
		for s := range sc.stores {
			if r.Intn(4) == 0 {
				continue
			}
			price := decimal.New(int64(r.Intn(12)*25), -2)
			sc.listings.add(sc.stores[s], p, price.StringFixed(2), r.Intn(8) != 0)
			if l, _ := sc.listings.Get(context.Background(), sc.stores[s], p); l.Available {
				sc.prices[i][s] = &price
			}
		}
	}
	return sc
}

// bruteForce returns the best (unassigned count, cost) over every store subset of size <= maxPlan.
func (sc randomScenario) bruteForce() (int, decimal.Decimal) {
	n := len(sc.stores)
	bestMissing := -1
	bestCost := decimal.Zero
	for mask := 1; mask < 1<<n; mask++ {
		size := 0
		for s := 0; s < n; s++ {
			if mask&(1<<s) != 0 {
				size++
			}
		}
		if size > sc.maxPlan {
			continue
		}

		missing := 0
		cost := decimal.Zero
		for i, row := range sc.prices {
			var cheapest *decimal.Decimal
			coverable := false
			for s, p := range row {
				if p == nil {
					continue
				}
				coverable = true
				if mask&(1<<s) != 0 && (cheapest == nil || p.LessThan(*cheapest)) {
					cheapest = p
				}
			}
			if !coverable {
				continue
			}
			if cheapest == nil {
				missing++
				continue
			}
			cost = cost.Add(cheapest.Mul(decimal.NewFromInt(int64(sc.wish[i].Quantity))))
		}

		if bestMissing < 0 || missing < bestMissing || (missing == bestMissing && cost.LessThan(bestCost)) {
			bestMissing = missing
			bestCost = cost
		}
	}
	return bestMissing, bestCost
}

func (sc randomScenario) compare(maxPlan int) (*models.ComparisonResult, error) {
	svc := newComparison(sc.listings, maxPlan)
	return svc.Compare(context.Background(), CompareRequest{StoreIDs: sc.stores, WishList: sc.wish})
}

func TestAllocationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("capped plan matches brute force over store subsets", prop.ForAll(
		func(seed int64) (bool, error) {
			sc := newRandomScenario(seed)
			res, err := sc.compare(sc.maxPlan)
			if err != nil {
				return false, err
			}
			if len(res.Plan.StoresUsed) > sc.maxPlan {
				return false, fmt.Errorf("plan uses %d stores, cap %d", len(res.Plan.StoresUsed), sc.maxPlan)
			}
			missing, cost := sc.bruteForce()
			if len(res.Plan.Unassigned) != missing {
				return false, fmt.Errorf("unassigned %d, brute force %d", len(res.Plan.Unassigned), missing)
			}
			if !res.Plan.TotalCost.Equal(cost) {
				return false, fmt.Errorf("plan cost %s, brute force %s", res.Plan.TotalCost, cost)
			}
			return true, nil
		},
		gen.Int64(),
	))

	properties.Property("subtotals are exact sums of matched lines", prop.ForAll(
		func(seed int64) bool {
			sc := newRandomScenario(seed)
			res, err := sc.compare(sc.maxPlan)
			if err != nil {
				return false
			}
			for si, b := range res.Stores {
				want := decimal.Zero
				for i, row := range sc.prices {
					if row[si] != nil {
						want = want.Add(row[si].Mul(decimal.NewFromInt(int64(sc.wish[i].Quantity))))
					}
				}
				if !want.Equal(b.Subtotal) {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.Property("uncapped plan never costs more than a single store for its items", prop.ForAll(
		func(seed int64) bool {
			sc := newRandomScenario(seed)
			res, err := sc.compare(len(sc.stores))
			if err != nil {
				return false
			}
			for _, b := range res.Stores {
				supplied := make(map[uuid.UUID]bool, len(b.Matches))
				for _, m := range b.Matches {
					supplied[m.Item.ProductID] = true
				}
				planCost := decimal.Zero
				for _, a := range res.Plan.Assignments {
					if supplied[a.Item.ProductID] {
						planCost = planCost.Add(a.LineTotal)
					}
				}
				if planCost.GreaterThan(b.Subtotal) {
					return false
				}
			}
			return len(res.Plan.Unassigned) == 0
		},
		gen.Int64(),
	))

	properties.Property("repeated comparisons are byte-identical", prop.ForAll(
		func(seed int64) bool {
			sc := newRandomScenario(seed)
			first, err1 := sc.compare(sc.maxPlan)
			second, err2 := sc.compare(sc.maxPlan)
			if err1 != nil || err2 != nil {
				return false
			}
			a, _ := json.Marshal(first)
			b, _ := json.Marshal(second)
			return string(a) == string(b)
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
