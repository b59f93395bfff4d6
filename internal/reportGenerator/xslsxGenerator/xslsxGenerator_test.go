package xslsxGenerator

import (
	"bytes"
	"context"
	"testing"

	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func ptr(v float64) *float64 { return &v }

func TestGenerate(t *testing.T) {
	anchor := date.MustParse("2025-02-28")
	next := date.MustParse("2025-03-03")

	report := model.Report{
		AnchorDate: anchor,
		Metrics: []model.PerformanceMetric{
			{Name: "alice", InitialValue: 100000, FinalValue: 109333.3333, TotalReturnPct: 9.333333, AnnualizedReturnPct: 4000.5, LastUpdated: date.MustParse("2025-03-10")},
			{Name: "bob", InitialValue: 100000, FinalValue: 90000, TotalReturnPct: -10, AnnualizedReturnPct: -99.9, LastUpdated: date.MustParse("2025-03-10")},
		},
		Positions: []model.Position{
			{Name: "bob", Ticker: "MSFT", Exchange: "NASDAQ", Weight: 1, FormattedTicker: "MSFT", Shares: ptr(500), PriceAtStart: ptr(200), TargetAllocation: ptr(100000), Allocation: ptr(100000)},
			{Name: "alice", Ticker: "FAIL", Exchange: "NYSE", Weight: 1, FormattedTicker: "FAIL"},
		},
		Values: []model.PortfolioValue{
			{Date: next, Name: "bob", Value: 90000, PctChange: -10},
			{Date: anchor, Name: "bob", Value: 100000, PctChange: 0},
			{Date: anchor, Name: "alice", Value: 100000, PctChange: 0},
		},
	}

	fileBytes, ext, err := New().Generate(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", ext)

	f, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Leaderboard", "Positions", "Daily values"}, f.GetSheetList())

	leaderboard, err := f.GetRows("Leaderboard")
	require.NoError(t, err)
	require.Len(t, leaderboard, 3)
	assert.Equal(t, "participant", leaderboard[0][1])
	assert.Equal(t, []string{"1", "alice", "100000", "109333.33", "9.33", "4000.5", "2025-03-10"}, leaderboard[1])
	assert.Equal(t, "bob", leaderboard[2][1])

	positions, err := f.GetRows("Positions")
	require.NoError(t, err)
	require.Len(t, positions, 3)
	assert.Equal(t, "price at 2025-02-28", positions[0][6])
	assert.Equal(t, []string{"alice", "FAIL", "NYSE", "FAIL", "1"}, positions[1])
	assert.Equal(t, []string{"bob", "MSFT", "NASDAQ", "MSFT", "1", "500", "200", "100000", "100000"}, positions[2])

	values, err := f.GetRows("Daily values")
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, []string{"date", "alice", "alice %", "bob", "bob %"}, values[0])
	assert.Equal(t, []string{"2025-02-28", "100000", "0", "100000", "0"}, values[1])
	assert.Equal(t, []string{"2025-03-03", "", "", "90000", "-10"}, values[2])
}

func TestGenerateEmpty(t *testing.T) {
	_, _, err := New().Generate(context.Background(), model.Report{})
	assert.Error(t, err)
}
