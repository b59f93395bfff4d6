package calculator

import (
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
)

// NormalizeSeries converts a price series quoted in currency into the reporting currency.
//
// Prices already in the reporting currency are returned as is. Otherwise the
// result only has the dates present in both prices and rates; nothing is
// forward-filled. A missing or empty rate series yields MissingFxSeriesError
// and no prices at all.
func NormalizeSeries(prices model.Series, currency, reporting string, rates model.Series) (model.Series, error) {
	if currency == reporting {
		return prices, nil
	}

	if len(rates) == 0 {
		return nil, &MissingFxSeriesError{Currency: currency, Reporting: reporting}
	}

	res := make(model.Series, len(prices))
	for d, price := range prices {
		rate, ok := rates[d]
		if !ok {
			continue
		}
		res[d] = price * rate
	}
	return res, nil
}
