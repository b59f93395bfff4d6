package calculator

import (
	"errors"
	"testing"

	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	d1 = date.MustParse("2025-02-28")
	d2 = date.MustParse("2025-03-03")
	d3 = date.MustParse("2025-03-04")
)

func ptr(v float64) *float64 { return &v }

func TestNormalizeSeriesInnerJoin(t *testing.T) {
	prices := model.Series{d1: 10, d2: 11}
	rates := model.Series{d1: 2.0}

	got, err := NormalizeSeries(prices, "HKD", "USD", rates)
	require.NoError(t, err)
	assert.Equal(t, model.Series{d1: 20.0}, got)
}

func TestNormalizeSeriesReportingCurrencyIsIdentity(t *testing.T) {
	prices := model.Series{d1: 10, d2: 11}

	got, err := NormalizeSeries(prices, "USD", "USD", nil)
	require.NoError(t, err)
	assert.Equal(t, prices, got)
}

func TestNormalizeSeriesMissingRates(t *testing.T) {
	_, err := NormalizeSeries(model.Series{d1: 10}, "GBP", "USD", model.Series{})

	var fxErr *MissingFxSeriesError
	require.True(t, errors.As(err, &fxErr))
	assert.Equal(t, "GBP", fxErr.Currency)
}

func TestGroupPositions(t *testing.T) {
	groups := GroupPositions([]model.Position{
		{Name: "b", Ticker: "X", Weight: 0.5},
		{Name: "a", Ticker: "Y", Weight: 0.2},
		{Name: "b", Ticker: "Z", Weight: 0.25},
	})

	assert.Equal(t, []string{"a", "b"}, groups.Names())
	assert.InDelta(t, 0.75, groups["b"].WeightTotal, 1e-12)
	assert.Equal(t, "X", groups["b"].Positions[0].Ticker)
	assert.Equal(t, "Z", groups["b"].Positions[1].Ticker)
}

func threePositions() []model.Position {
	return []model.Position{
		{Name: "p", Ticker: "AAA", FormattedTicker: "AAA", Weight: 0.4},
		{Name: "p", Ticker: "BBB", FormattedTicker: "BBB", Weight: 0.3},
		{Name: "p", Ticker: "CCC", FormattedTicker: "CCC", Weight: 0.3},
	}
}

func TestAllocate(t *testing.T) {
	anchorPrices := map[string]float64{"AAA": 10, "BBB": 20, "CCC": 50}

	allocs, errs := Allocate(GroupPositions(threePositions()), anchorPrices, d1, 100000)
	require.Empty(t, errs)
	require.Len(t, allocs, 3)

	wantAlloc := []float64{40000, 30000, 30000}
	wantShares := []float64{4000, 1500, 600}
	for i, a := range allocs {
		assert.InDelta(t, wantAlloc[i], a.TargetAllocation, 1e-6)
		assert.InDelta(t, wantAlloc[i], a.Allocation, 1e-6)
		assert.InDelta(t, wantShares[i], a.Shares, 1e-9)
		assert.False(t, a.Skipped)
	}

	again, _ := Allocate(GroupPositions(threePositions()), anchorPrices, d1, 100000)
	assert.Equal(t, allocs, again)
}

func TestAllocateNormalizesWeights(t *testing.T) {
	positions := []model.Position{
		{Name: "p", Ticker: "AAA", FormattedTicker: "AAA", Weight: 2},
		{Name: "p", Ticker: "BBB", FormattedTicker: "BBB", Weight: 2},
	}

	allocs, errs := Allocate(GroupPositions(positions), map[string]float64{"AAA": 1, "BBB": 4}, d1, 1000)
	require.Empty(t, errs)
	assert.InDelta(t, 500, allocs[0].TargetAllocation, 1e-9)
	assert.InDelta(t, 125, allocs[1].Shares, 1e-9)
}

func TestAllocateMissingAnchorPriceSkipsOnlyThatPosition(t *testing.T) {
	anchorPrices := map[string]float64{"AAA": 10, "CCC": 50}

	allocs, errs := Allocate(GroupPositions(threePositions()), anchorPrices, d1, 100000)
	require.Len(t, errs, 1)

	var missing *MissingTickerPriceError
	require.True(t, errors.As(errs[0], &missing))
	assert.Equal(t, "BBB", missing.Ticker)
	assert.Equal(t, d1, missing.Date)

	assert.False(t, allocs[0].Skipped)
	assert.True(t, allocs[1].Skipped)
	assert.Zero(t, allocs[1].Shares)
	assert.InDelta(t, 600, allocs[2].Shares, 1e-9)
}

func TestApplyAllocations(t *testing.T) {
	positions := threePositions()
	positions[1].Shares = ptr(99)

	allocs, _ := Allocate(GroupPositions(positions), map[string]float64{"AAA": 10, "CCC": 50}, d1, 100000)
	got := ApplyAllocations(positions, allocs)

	require.NotNil(t, got[0].Shares)
	assert.InDelta(t, 4000, *got[0].Shares, 1e-9)
	assert.InDelta(t, 10, *got[0].PriceAtStart, 1e-9)
	assert.Nil(t, got[1].Shares)
	assert.Nil(t, got[1].Allocation)
	assert.True(t, got[2].IsAllocated())
}

func TestValuePortfolios(t *testing.T) {
	positions := []model.Position{
		{Name: "p", Ticker: "AAA", FormattedTicker: "AAA", Weight: 1, Shares: ptr(4000)},
	}
	prices := []model.DailyPrice{
		{Date: date.MustParse("2025-02-27"), Ticker: "AAA", Price: 9},
		{Date: d1, Ticker: "AAA", Price: 10},
		{Date: d2, Ticker: "AAA", Price: 12},
	}

	values, errs := ValuePortfolios(d1, GroupPositions(positions), prices)
	require.Empty(t, errs)
	require.Len(t, values["p"], 2)

	assert.Equal(t, d1, values["p"][0].Date)
	assert.InDelta(t, 40000, values["p"][0].Value, 1e-9)
	assert.InDelta(t, 0, values["p"][0].PctChange, 1e-12)
	assert.Equal(t, d2, values["p"][1].Date)
	assert.InDelta(t, 48000, values["p"][1].Value, 1e-9)
	assert.InDelta(t, 20.0, values["p"][1].PctChange, 1e-9)
}

func TestValuePortfoliosMissingPriceContributesZero(t *testing.T) {
	positions := []model.Position{
		{Name: "p", Ticker: "AAA", FormattedTicker: "AAA", Weight: 1, Shares: ptr(10)},
		{Name: "p", Ticker: "BBB", FormattedTicker: "BBB", Weight: 1, Shares: ptr(1)},
	}
	prices := []model.DailyPrice{
		{Date: d1, Ticker: "AAA", Price: 1},
		{Date: d1, Ticker: "BBB", Price: 10},
		{Date: d2, Ticker: "AAA", Price: 1},
		{Date: d3, Ticker: "BBB", Price: 10},
	}

	values, errs := ValuePortfolios(d1, GroupPositions(positions), prices)
	require.Empty(t, errs)
	require.Len(t, values["p"], 3)
	assert.InDelta(t, 20, values["p"][0].Value, 1e-9)
	assert.InDelta(t, 10, values["p"][1].Value, 1e-9)
	assert.InDelta(t, -50, values["p"][1].PctChange, 1e-9)
	assert.InDelta(t, 10, values["p"][2].Value, 1e-9)
}

func TestValuePortfoliosDegenerateParticipant(t *testing.T) {
	positions := []model.Position{
		{Name: "empty", Ticker: "AAA", FormattedTicker: "AAA", Weight: 1},
		{Name: "zero", Ticker: "BBB", FormattedTicker: "BBB", Weight: 1, Shares: ptr(5)},
		{Name: "ok", Ticker: "AAA", FormattedTicker: "AAA", Weight: 1, Shares: ptr(5)},
	}
	prices := []model.DailyPrice{
		{Date: d1, Ticker: "AAA", Price: 10},
		{Date: d2, Ticker: "BBB", Price: 10},
	}

	values, errs := ValuePortfolios(d1, GroupPositions(positions), prices)
	require.Len(t, errs, 2)
	for _, err := range errs {
		var degenerate *DegenerateSeriesError
		assert.True(t, errors.As(err, &degenerate))
	}
	assert.Contains(t, values, "ok")
	assert.NotContains(t, values, "empty")
	assert.NotContains(t, values, "zero")
}

func TestCalculateReturnsOneYear(t *testing.T) {
	total, annualized, err := CalculateReturns(100000, 120000, 365.25)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, total, 1e-9)
	assert.InDelta(t, 20.0, annualized, 1e-9)
}

func TestCalculateReturnsDegenerate(t *testing.T) {
	_, _, err := CalculateReturns(0, 100, 10)
	var degenerate *DegenerateSeriesError
	assert.True(t, errors.As(err, &degenerate))

	_, _, err = CalculateReturns(100, 100, 0)
	assert.True(t, errors.As(err, &degenerate))
}

func TestCalculateReturnsNonFiniteAnnualized(t *testing.T) {
	var degenerate *DegenerateSeriesError

	// ratio^365.25 overflows
	_, _, err := CalculateReturns(1, 1e10, 1)
	assert.True(t, errors.As(err, &degenerate))

	// negative ratio has no real root
	_, _, err = CalculateReturns(100, -50, 30)
	assert.True(t, errors.As(err, &degenerate))
}

func TestSummarizeNonFiniteIsDegenerate(t *testing.T) {
	values := []model.PortfolioValue{
		{Date: date.MustParse("2025-03-03"), Name: "p", Value: 1},
		{Date: date.MustParse("2025-03-04"), Name: "p", Value: 1e10},
	}

	_, err := Summarize("p", values, date.MustParse("2025-03-10"))

	var degenerate *DegenerateSeriesError
	require.True(t, errors.As(err, &degenerate))
	assert.Equal(t, "p", degenerate.Name)
}

func TestSummarize(t *testing.T) {
	runDate := date.MustParse("2026-01-15")
	values := []model.PortfolioValue{
		{Date: date.MustParse("2025-03-01"), Name: "p", Value: 100000},
		{Date: date.MustParse("2025-09-01"), Name: "p", Value: 90000},
		{Date: date.MustParse("2025-03-03"), Name: "p", Value: 101000},
	}

	metric, err := Summarize("p", values, runDate)
	require.NoError(t, err)
	assert.Equal(t, "p", metric.Name)
	assert.Equal(t, 100000.0, metric.InitialValue)
	assert.Equal(t, 90000.0, metric.FinalValue)
	assert.InDelta(t, -10, metric.TotalReturnPct, 1e-9)
	assert.Less(t, metric.AnnualizedReturnPct, metric.TotalReturnPct)
	assert.Equal(t, runDate, metric.LastUpdated)
}

func TestSummarizeSingleDateIsDegenerate(t *testing.T) {
	_, err := Summarize("p", []model.PortfolioValue{{Date: d1, Name: "p", Value: 1}}, d1)

	var degenerate *DegenerateSeriesError
	require.True(t, errors.As(err, &degenerate))
	assert.Equal(t, "p", degenerate.Name)
}
