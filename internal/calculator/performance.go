package calculator

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
)

const daysPerYear = 365.25

// CalculateReturns returns the total and annualized return in percent.
func CalculateReturns(initial, final, days float64) (total, annualized float64, err error) {
	if initial == 0 {
		return 0, 0, &DegenerateSeriesError{Reason: "initial value is zero"}
	}
	years := days / daysPerYear
	if math.Abs(years) < 1e-9 {
		return 0, 0, &DegenerateSeriesError{Reason: "series spans zero days"}
	}

	ratio := final / initial
	total = (ratio - 1) * 100
	annualized = (math.Pow(ratio, 1/years) - 1) * 100
	if math.IsInf(annualized, 0) || math.IsNaN(annualized) {
		return 0, 0, &DegenerateSeriesError{Reason: fmt.Sprintf("annualized return is not finite for ratio %g over %g days", ratio, days)}
	}
	return total, annualized, nil
}

// Summarize reduces one participant's value series to its performance metric.
// The series order does not matter; the first and last dates are used.
func Summarize(name string, values []model.PortfolioValue, runDate date.Date) (model.PerformanceMetric, error) {
	if len(values) == 0 {
		return model.PerformanceMetric{}, &DegenerateSeriesError{Name: name, Reason: "empty series"}
	}

	sorted := make([]model.PortfolioValue, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	first, last := sorted[0], sorted[len(sorted)-1]
	days := float64(last.Date.DaysSince(first.Date))

	total, annualized, err := CalculateReturns(first.Value, last.Value, days)
	if err != nil {
		var degenerate *DegenerateSeriesError
		if errors.As(err, &degenerate) {
			degenerate.Name = name
		}
		return model.PerformanceMetric{}, err
	}

	return model.PerformanceMetric{
		Name:                name,
		InitialValue:        first.Value,
		FinalValue:          last.Value,
		TotalReturnPct:      total,
		AnnualizedReturnPct: annualized,
		LastUpdated:         runDate,
	}, nil
}
