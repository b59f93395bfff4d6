package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/KotFed0t/stockpicking_tracker/config"
	"github.com/KotFed0t/stockpicking_tracker/data"
	"github.com/KotFed0t/stockpicking_tracker/data/repository"
	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T, batchSize int) *Sqlite {
	t.Helper()

	db, err := data.OpenSqlite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewSqlite(&config.Config{Storage: config.Storage{BatchSize: batchSize}}, db)
}

func day(s string) date.Date { return date.MustParse(s) }

func TestListTables(t *testing.T) {
	repo := newRepo(t, 100)

	tables, err := repo.ListTables(context.Background())
	require.NoError(t, err)
	assert.Subset(t, tables, []string{"daily_prices", "exchange_rates", "performance_metrics", "portfolio_values", "positions"})
}

func TestPositionsUpsertKeepsAllocation(t *testing.T) {
	repo := newRepo(t, 100)
	ctx := context.Background()

	positions := []model.Position{
		{Name: "a", Ticker: "0700", Exchange: "HKG", Weight: 0.5, FormattedTicker: "0700.HK"},
		{Name: "a", Ticker: "NVDA", Exchange: "NASDAQ", Weight: 0.5, FormattedTicker: "NVDA"},
	}
	require.NoError(t, repo.UpsertPositions(ctx, positions))

	shares, price := 10.0, 50.0
	allocated := positions[0]
	allocated.Shares, allocated.PriceAtStart, allocated.TargetAllocation, allocated.Allocation = &shares, &price, &price, &price
	require.NoError(t, repo.UpdateAllocations(ctx, []model.Position{allocated, positions[1]}))

	positions[0].Weight = 0.7
	require.NoError(t, repo.UpsertPositions(ctx, positions))

	got, err := repo.GetPositions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0.7, got[0].Weight)
	require.NotNil(t, got[0].Shares)
	assert.Equal(t, 10.0, *got[0].Shares)
	assert.Nil(t, got[1].Shares)

	require.NoError(t, repo.DeletePositions(ctx, positions[1:]))
	got, err = repo.GetPositions(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDailyPricesUpsertInBatches(t *testing.T) {
	repo := newRepo(t, 3)
	ctx := context.Background()

	var prices []model.DailyPrice
	start := day("2025-02-24")
	for i := 0; i < 10; i++ {
		prices = append(prices, model.DailyPrice{Date: start.AddDays(i), Ticker: "AAA", Price: float64(i)})
	}
	require.NoError(t, repo.UpsertDailyPrices(ctx, prices))

	// second write of the same keys updates instead of duplicating
	prices[9].Price = 99
	require.NoError(t, repo.UpsertDailyPrices(ctx, prices[8:]))

	got, err := repo.GetPricesSince(ctx, start)
	require.NoError(t, err)
	require.Len(t, got, 10)
	assert.Equal(t, 99.0, got[9].Price)

	latest, err := repo.GetLatestPriceDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]date.Date{"AAA": day("2025-03-05")}, latest)

	on, err := repo.GetPricesOn(ctx, day("2025-03-01"))
	require.NoError(t, err)
	require.Len(t, on, 1)
	assert.Equal(t, 5.0, on[0].Price)
}

func TestGetAnchorDate(t *testing.T) {
	repo := newRepo(t, 100)
	ctx := context.Background()

	_, err := repo.GetAnchorDate(ctx, day("2025-03-01"))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.UpsertDailyPrices(ctx, []model.DailyPrice{
		{Date: day("2025-02-27"), Ticker: "AAA", Price: 1},
		{Date: day("2025-02-28"), Ticker: "BBB", Price: 1},
		{Date: day("2025-03-03"), Ticker: "AAA", Price: 1},
	}))

	anchor, err := repo.GetAnchorDate(ctx, day("2025-03-01"))
	require.NoError(t, err)
	assert.Equal(t, day("2025-02-28"), anchor)

	_, err = repo.GetAnchorDate(ctx, day("2025-01-01"))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestExchangeRates(t *testing.T) {
	repo := newRepo(t, 100)
	ctx := context.Background()

	_, err := repo.GetLatestRateDate(ctx, "HKD", "USD")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.UpsertExchangeRates(ctx, []model.ExchangeRate{
		{Date: day("2025-02-28"), FromCurrency: "HKD", ToCurrency: "USD", Rate: 0.128},
		{Date: day("2025-03-03"), FromCurrency: "HKD", ToCurrency: "USD", Rate: 0.129},
		{Date: day("2025-03-03"), FromCurrency: "EUR", ToCurrency: "USD", Rate: 1.04},
	}))

	latest, err := repo.GetLatestRateDate(ctx, "HKD", "USD")
	require.NoError(t, err)
	assert.Equal(t, day("2025-03-03"), latest)

	rates, err := repo.GetExchangeRates(ctx, "HKD", "USD", day("2025-03-01"))
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, 0.129, rates[0].Rate)
}

func TestPortfolioValuesAndMetrics(t *testing.T) {
	repo := newRepo(t, 100)
	ctx := context.Background()

	require.NoError(t, repo.UpsertPortfolioValues(ctx, []model.PortfolioValue{
		{Date: day("2025-02-27"), Name: "a", Value: 1},
		{Date: day("2025-02-28"), Name: "a", Value: 100},
		{Date: day("2025-02-28"), Name: "b", Value: 100},
		{Date: day("2025-03-03"), Name: "a", Value: 110, PctChange: 10},
	}))

	err := repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := repo.DeletePortfolioValuesBefore(ctx, day("2025-02-28")); err != nil {
			return err
		}
		return repo.DeletePortfolioValuesOf(ctx, []string{"b"})
	})
	require.NoError(t, err)

	values, err := repo.GetPortfolioValues(ctx)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, day("2025-02-28"), values[0].Date)
	assert.Equal(t, 10.0, values[1].PctChange)

	updated := day("2026-01-02")
	require.NoError(t, repo.ReplacePerformanceMetrics(ctx, []model.PerformanceMetric{
		{Name: "a", InitialValue: 100, FinalValue: 110, TotalReturnPct: 10, AnnualizedReturnPct: 12, LastUpdated: updated},
		{Name: "b", InitialValue: 100, FinalValue: 120, TotalReturnPct: 20, AnnualizedReturnPct: 25, LastUpdated: updated},
	}))
	require.NoError(t, repo.ReplacePerformanceMetrics(ctx, []model.PerformanceMetric{
		{Name: "a", InitialValue: 100, FinalValue: 110, TotalReturnPct: 10, AnnualizedReturnPct: 12, LastUpdated: updated},
	}))

	metrics, err := repo.GetPerformanceMetrics(ctx)
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, "a", metrics[0].Name)
	assert.Equal(t, updated, metrics[0].LastUpdated)
}

func TestWithinTransactionRollsBack(t *testing.T) {
	repo := newRepo(t, 100)
	ctx := context.Background()

	err := repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := repo.UpsertDailyPrices(ctx, []model.DailyPrice{{Date: day("2025-03-03"), Ticker: "AAA", Price: 1}}); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	prices, err := repo.GetPricesSince(ctx, day("2000-01-01"))
	require.NoError(t, err)
	assert.Empty(t, prices)
}
