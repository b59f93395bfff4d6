package calculator

import (
	"fmt"

	"github.com/KotFed0t/stockpicking_tracker/internal/date"
)

// NoAnchorDateError means no price exists at or before the valuation date.
// Nothing downstream can be computed.
type NoAnchorDateError struct {
	ValuationDate date.Date
}

func (e *NoAnchorDateError) Error() string {
	return fmt.Sprintf("no price data available at or before %s", e.ValuationDate)
}

// MissingTickerPriceError means one position has no price at the anchor date.
type MissingTickerPriceError struct {
	Name   string
	Ticker string
	Date   date.Date
}

func (e *MissingTickerPriceError) Error() string {
	return fmt.Sprintf("no price for %s (%s) on %s", e.Ticker, e.Name, e.Date)
}

// MissingFxSeriesError means a currency that needs conversion has no rate series.
type MissingFxSeriesError struct {
	Currency  string
	Reporting string
}

func (e *MissingFxSeriesError) Error() string {
	return fmt.Sprintf("no %s/%s exchange rate series", e.Currency, e.Reporting)
}

// DegenerateSeriesError means a return or percentage would divide by zero.
type DegenerateSeriesError struct {
	Name   string
	Reason string
}

func (e *DegenerateSeriesError) Error() string {
	return fmt.Sprintf("degenerate series for %s: %s", e.Name, e.Reason)
}
