package services

import (
	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/models"
	"github.com/shopspring/decimal"
)

// offer is one store's available listing for one wish item
type offer struct {
	storeIdx  int
	listingID uuid.UUID
	unitPrice decimal.Decimal
}

// priceGrid holds, per wish item, the offers of every candidate store.
// Stores are indexed in ascending id order, so the first minimum found is the
// deterministic tie-break winner.
type priceGrid struct {
	storeIDs []uuid.UUID
	items    []models.WishItem
	offers   [][]*offer // [item][store]
}

func (g *priceGrid) offerCount(item int) int {
	n := 0
	for _, o := range g.offers[item] {
		if o != nil {
			n++
		}
	}
	return n
}

// cheapestIn returns the cheapest offer for item among the allowed stores.
func (g *priceGrid) cheapestIn(item int, allowed []bool) *offer {
	var best *offer
	for s, o := range g.offers[item] {
		if o == nil || !allowed[s] {
			continue
		}
		if best == nil || o.unitPrice.LessThan(best.unitPrice) {
			best = o
		}
	}
	return best
}

func (g *priceGrid) allStores() []bool {
	allowed := make([]bool, len(g.storeIDs))
	for i := range allowed {
		allowed[i] = true
	}
	return allowed
}

func lineTotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}

// candidatePlan is an allocation over a retained store set
type candidatePlan struct {
	assigned   []*offer // per item; nil when unassigned or globally missing
	unassigned []int
	cost       decimal.Decimal
}

// planWithin assigns every coverable item to a store in the retained set: its naive
// store when retained, else the cheapest retained store. An item no retained store
// supplies stays unassigned.
func (g *priceGrid) planWithin(retained []bool, naive []*offer) candidatePlan {
	plan := candidatePlan{assigned: make([]*offer, len(g.items)), cost: decimal.Zero}

	for i, best := range naive {
		if best == nil {
			continue
		}
		if retained[best.storeIdx] {
			plan.assigned[i] = best
		} else if to := g.cheapestIn(i, retained); to != nil {
			plan.assigned[i] = to
		} else {
			plan.unassigned = append(plan.unassigned, i)
			continue
		}
		plan.cost = plan.cost.Add(lineTotal(plan.assigned[i].unitPrice, g.items[i].Quantity))
	}
	return plan
}

// betterPlan orders candidates by fewest unassigned items, then lowest cost.
func betterPlan(a, b candidatePlan) bool {
	if len(a.unassigned) != len(b.unassigned) {
		return len(a.unassigned) < len(b.unassigned)
	}
	return a.cost.LessThan(b.cost)
}

// storeSubsets enumerates index subsets of size k over n stores in lexicographic order.
func storeSubsets(n, k int) [][]bool {
	var out [][]bool
	var walk func(start int, picked []int)
	walk = func(start int, picked []int) {
		if len(picked) == k {
			mask := make([]bool, n)
			for _, p := range picked {
				mask[p] = true
			}
			out = append(out, mask)
			return
		}
		for i := start; i < n; i++ {
			walk(i+1, append(picked, i))
		}
	}
	walk(0, nil)
	return out
}

// allocate builds the cap-constrained allocation. The naive plan sends every item to
// its cheapest store; when that touches more than maxStores stores, every retained
// set of maxStores candidates is evaluated with planWithin and the best kept. With at
// most three candidate stores this is a handful of passes.
func (g *priceGrid) allocate(maxStores int) candidatePlan {
	all := g.allStores()
	naive := make([]*offer, len(g.items))
	used := make(map[int]struct{})
	for i := range g.items {
		if best := g.cheapestIn(i, all); best != nil {
			naive[i] = best
			used[best.storeIdx] = struct{}{}
		}
	}

	if len(used) <= maxStores {
		return g.planWithin(all, naive)
	}

	var best *candidatePlan
	for _, retained := range storeSubsets(len(g.storeIDs), maxStores) {
		candidate := g.planWithin(retained, naive)
		if best == nil || betterPlan(candidate, *best) {
			c := candidate
			best = &c
		}
	}
	return *best
}

// toAllocationPlan renders a candidate in wish-list order.
func (g *priceGrid) toAllocationPlan(c candidatePlan, maxStores int) models.AllocationPlan {
	plan := models.AllocationPlan{
		Assignments: make([]models.Allocation, 0, len(g.items)),
		StoresUsed:  make([]uuid.UUID, 0),
		MaxStores:   maxStores,
		TotalCost:   c.cost,
		Unassigned:  make([]models.WishItem, 0, len(c.unassigned)),
	}

	usedStores := make([]bool, len(g.storeIDs))
	for i, o := range c.assigned {
		if o == nil {
			continue
		}
		usedStores[o.storeIdx] = true
		plan.Assignments = append(plan.Assignments, models.Allocation{
			Item:      g.items[i],
			StoreID:   g.storeIDs[o.storeIdx],
			ListingID: o.listingID,
			UnitPrice: o.unitPrice,
			LineTotal: lineTotal(o.unitPrice, g.items[i].Quantity),
		})
	}
	for s, used := range usedStores {
		if used {
			plan.StoresUsed = append(plan.StoresUsed, g.storeIDs[s])
		}
	}
	for _, i := range c.unassigned {
		plan.Unassigned = append(plan.Unassigned, g.items[i])
	}

	g.attachSavings(&plan, c)
	return plan
}

// attachSavings compares the plan to the cheapest single store supplying every
// assigned item.
func (g *priceGrid) attachSavings(plan *models.AllocationPlan, c candidatePlan) {
	if len(plan.Assignments) == 0 {
		return
	}

	var bestSingle *decimal.Decimal
	for s := range g.storeIDs {
		total := decimal.Zero
		supplies := true
		for i, o := range c.assigned {
			if o == nil {
				continue
			}
			own := g.offers[i][s]
			if own == nil {
				supplies = false
				break
			}
			total = total.Add(lineTotal(own.unitPrice, g.items[i].Quantity))
		}
		if supplies && (bestSingle == nil || total.LessThan(*bestSingle)) {
			t := total
			bestSingle = &t
		}
	}
	if bestSingle == nil {
		return
	}

	savings := bestSingle.Sub(plan.TotalCost)
	plan.Savings = &savings
	if bestSingle.IsPositive() {
		plan.SavingsPercent = savings.Div(*bestSingle).Mul(hundred).Round(0).IntPart()
	}
}
