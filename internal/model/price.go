package model

import (
	"sort"

	"github.com/KotFed0t/stockpicking_tracker/internal/date"
)

type DailyPrice struct {
	Date   date.Date
	Ticker string
	Price  float64
}

type ExchangeRate struct {
	Date         date.Date
	FromCurrency string
	ToCurrency   string
	Rate         float64
}

// PricePoint is one daily close as returned by the price vendor.
type PricePoint struct {
	Date  date.Date `json:"date"`
	Close float64   `json:"close"`
}

// Series is a sparse daily series. Missing days have no key.
type Series map[date.Date]float64

// Dates returns the series dates in ascending order.
func (s Series) Dates() []date.Date {
	res := make([]date.Date, 0, len(s))
	for d := range s {
		res = append(res, d)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Before(res[j]) })
	return res
}

func SeriesFromPoints(points []PricePoint) Series {
	s := make(Series, len(points))
	for _, p := range points {
		s[p.Date] = p.Close
	}
	return s
}
