package calculator

import (
	"sort"

	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
)

// ValuationDates returns the distinct price dates at or after anchor, ascending.
func ValuationDates(anchor date.Date, prices []model.DailyPrice) []date.Date {
	seen := make(map[date.Date]struct{})
	for _, p := range prices {
		if p.Date.Before(anchor) {
			continue
		}
		seen[p.Date] = struct{}{}
	}

	res := make([]date.Date, 0, len(seen))
	for d := range seen {
		res = append(res, d)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Before(res[j]) })
	return res
}

// ValuePortfolios rolls every participant's holdings forward over the price table.
//
// A holding contributes shares × price on the dates its ticker has a price and
// nothing otherwise. Percentage change is relative to the participant's value on
// the first valuation date. Participants without allocated positions or with a
// zero starting value produce a DegenerateSeriesError and no rows.
func ValuePortfolios(anchor date.Date, groups Groups, prices []model.DailyPrice) (map[string][]model.PortfolioValue, []error) {
	dates := ValuationDates(anchor, prices)

	type key struct {
		d      date.Date
		ticker string
	}
	priceAt := make(map[key]float64, len(prices))
	for _, p := range prices {
		priceAt[key{p.Date, p.Ticker}] = p.Price
	}

	var errs []error
	res := make(map[string][]model.PortfolioValue, len(groups))

	for _, name := range groups.Names() {
		var holdings []model.Position
		for _, p := range groups[name].Positions {
			if p.IsAllocated() {
				holdings = append(holdings, p)
			}
		}
		if len(holdings) == 0 {
			errs = append(errs, &DegenerateSeriesError{Name: name, Reason: "no allocated positions"})
			continue
		}
		if len(dates) == 0 {
			errs = append(errs, &DegenerateSeriesError{Name: name, Reason: "no price dates after anchor"})
			continue
		}

		values := make([]model.PortfolioValue, 0, len(dates))
		for _, d := range dates {
			var total float64
			for _, h := range holdings {
				if price, ok := priceAt[key{d, h.FormattedTicker}]; ok {
					total += *h.Shares * price
				}
			}
			values = append(values, model.PortfolioValue{Date: d, Name: name, Value: total})
		}

		initial := values[0].Value
		if initial == 0 {
			errs = append(errs, &DegenerateSeriesError{Name: name, Reason: "zero value at " + values[0].Date.String()})
			continue
		}
		for i := range values {
			values[i].PctChange = (values[i].Value/initial - 1) * 100
		}
		res[name] = values
	}

	return res, errs
}
