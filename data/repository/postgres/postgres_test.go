package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/KotFed0t/stockpicking_tracker/config"
	"github.com/KotFed0t/stockpicking_tracker/data/repository"
	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// arrayConverter lets slices through as pgx does for array parameters.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if v != nil && reflect.TypeOf(v).Kind() == reflect.Slice {
		if _, ok := v.([]byte); !ok {
			return v, nil
		}
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newMock(t *testing.T, batchSize int) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{Storage: config.Storage{BatchSize: batchSize}}
	return NewPostgres(cfg, sqlx.NewDb(db, "pgx")), mock
}

func day(s string) date.Date { return date.MustParse(s) }

func TestUpsertDailyPricesBatches(t *testing.T) {
	repo, mock := newMock(t, 2)

	prices := []model.DailyPrice{
		{Date: day("2025-03-03"), Ticker: "AAA", Price: 1},
		{Date: day("2025-03-03"), Ticker: "BBB", Price: 2},
		{Date: day("2025-03-04"), Ticker: "AAA", Price: 3},
	}

	mock.ExpectExec(`INSERT INTO daily_prices .* ON CONFLICT \(date, ticker\) DO UPDATE`).
		WithArgs(
			[]time.Time{day("2025-03-03").Time(), day("2025-03-03").Time()},
			[]string{"AAA", "BBB"},
			[]float64{1, 2},
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO daily_prices`).
		WithArgs([]time.Time{day("2025-03-04").Time()}, []string{"AAA"}, []float64{3}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpsertDailyPrices(context.Background(), prices))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAnchorDate(t *testing.T) {
	repo, mock := newMock(t, 10)
	valuation := day("2025-03-01")

	mock.ExpectQuery(`SELECT MAX\(date\) FROM daily_prices WHERE date <= \$1`).
		WithArgs(valuation.Time()).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)))

	anchor, err := repo.GetAnchorDate(context.Background(), valuation)
	require.NoError(t, err)
	assert.Equal(t, day("2025-02-28"), anchor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAnchorDateNotFound(t *testing.T) {
	repo, mock := newMock(t, 10)

	mock.ExpectQuery(`SELECT MAX\(date\) FROM daily_prices`).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	_, err := repo.GetAnchorDate(context.Background(), day("2025-03-01"))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetLatestPriceDates(t *testing.T) {
	repo, mock := newMock(t, 10)

	mock.ExpectQuery(`SELECT ticker AS key, MAX\(date\) AS date FROM daily_prices GROUP BY ticker`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "date"}).
			AddRow("AAA", time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)).
			AddRow("0700.HK", time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)))

	latest, err := repo.GetLatestPriceDates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]date.Date{"AAA": day("2025-03-04"), "0700.HK": day("2025-03-03")}, latest)
}

func TestUpdateAllocationsWritesNulls(t *testing.T) {
	repo, mock := newMock(t, 10)
	shares, price := 10.0, 5.0

	positions := []model.Position{
		{Name: "a", Ticker: "AAA", Shares: &shares, PriceAtStart: &price, TargetAllocation: &shares, Allocation: &shares},
		{Name: "a", Ticker: "BBB"},
	}

	mock.ExpectExec(`UPDATE positions AS p`).
		WithArgs(
			[]string{"a", "a"},
			[]string{"AAA", "BBB"},
			[]*float64{&shares, nil},
			[]*float64{&price, nil},
			[]*float64{&shares, nil},
			[]*float64{&shares, nil},
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.UpdateAllocations(context.Background(), positions))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPositions(t *testing.T) {
	repo, mock := newMock(t, 10)

	mock.ExpectQuery(`SELECT name, ticker, exchange, weight, formatted_ticker`).
		WillReturnRows(sqlmock.NewRows([]string{
			"name", "ticker", "exchange", "weight", "formatted_ticker",
			"shares", "price_at_start", "target_allocation", "allocation",
		}).
			AddRow("Abhi", "0700", "HKG", 0.25, "0700.HK", 100.0, 50.0, 5000.0, 5000.0).
			AddRow("Abhi", "BRO", "NASDAQ", 0.25, "BRO", nil, nil, nil, nil))

	positions, err := repo.GetPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.True(t, positions[0].IsAllocated())
	assert.Equal(t, 100.0, *positions[0].Shares)
	assert.False(t, positions[1].IsAllocated())
}

func TestReplacePerformanceMetricsInTransaction(t *testing.T) {
	repo, mock := newMock(t, 10)
	updated := day("2026-01-02")

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM performance_metrics`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO performance_metrics`).
		WithArgs(
			[]string{"a"},
			[]float64{100},
			[]float64{120},
			[]float64{20},
			[]float64{20},
			[]time.Time{updated.Time()},
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WithinTransaction(context.Background(), func(ctx context.Context) error {
		return repo.ReplacePerformanceMetrics(ctx, []model.PerformanceMetric{
			{Name: "a", InitialValue: 100, FinalValue: 120, TotalReturnPct: 20, AnnualizedReturnPct: 20, LastUpdated: updated},
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransactionRollsBack(t *testing.T) {
	repo, mock := newMock(t, 10)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM portfolio_values WHERE date < \$1`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.WithinTransaction(context.Background(), func(ctx context.Context) error {
		if err := repo.DeletePortfolioValuesBefore(ctx, day("2025-02-28")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
