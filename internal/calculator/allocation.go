package calculator

import (
	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
)

// Allocate turns every position's weight into a share count priced at the anchor date.
//
// Weights are normalized per participant so the whole capital is deployed even
// when a participant's weights do not sum to 1. Positions without an anchor
// price are returned with Skipped set, together with a MissingTickerPriceError
// each; the remaining positions are unaffected.
func Allocate(groups Groups, anchorPrices map[string]float64, anchor date.Date, capital float64) ([]model.Allocation, []error) {
	var (
		res  []model.Allocation
		errs []error
	)

	for _, name := range groups.Names() {
		group := groups[name]
		for _, p := range group.Positions {
			normalized := p.Weight / group.WeightTotal
			alloc := model.Allocation{
				Name:             p.Name,
				Ticker:           p.Ticker,
				FormattedTicker:  p.FormattedTicker,
				NormalizedWeight: normalized,
				TargetAllocation: capital * normalized,
			}

			price, ok := anchorPrices[p.FormattedTicker]
			if !ok || price <= 0 {
				alloc.Skipped = true
				res = append(res, alloc)
				errs = append(errs, &MissingTickerPriceError{Name: p.Name, Ticker: p.FormattedTicker, Date: anchor})
				continue
			}

			alloc.PriceAtStart = price
			alloc.Shares = alloc.TargetAllocation / price
			alloc.Allocation = alloc.Shares * price
			res = append(res, alloc)
		}
	}

	return res, errs
}

// ApplyAllocations copies allocation results onto positions keyed by (name, ticker).
// Skipped allocations clear the allocation fields.
func ApplyAllocations(positions []model.Position, allocs []model.Allocation) []model.Position {
	type key struct{ name, ticker string }
	byKey := make(map[key]model.Allocation, len(allocs))
	for _, a := range allocs {
		byKey[key{a.Name, a.Ticker}] = a
	}

	res := make([]model.Position, len(positions))
	for i, p := range positions {
		a, ok := byKey[key{p.Name, p.Ticker}]
		if ok {
			if a.Skipped {
				p.Shares, p.PriceAtStart, p.TargetAllocation, p.Allocation = nil, nil, nil, nil
			} else {
				shares, price, target, actual := a.Shares, a.PriceAtStart, a.TargetAllocation, a.Allocation
				p.Shares, p.PriceAtStart, p.TargetAllocation, p.Allocation = &shares, &price, &target, &actual
			}
		}
		res[i] = p
	}
	return res
}
