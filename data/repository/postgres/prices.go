package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/KotFed0t/stockpicking_tracker/data/repository"
	"github.com/KotFed0t/stockpicking_tracker/internal/converter/dbConverter"
	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/KotFed0t/stockpicking_tracker/internal/model/dbModel"
	"github.com/KotFed0t/stockpicking_tracker/utils"
)

func (r *Postgres) UpsertDailyPrices(ctx context.Context, prices []model.DailyPrice) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpsertDailyPrices"
	query := `
		INSERT INTO daily_prices (date, ticker, price)
		SELECT u.date, u.ticker, u.price
		FROM UNNEST(
			$1::date[],
			$2::text[],
			$3::double precision[]
		) AS u(date, ticker, price)
		ON CONFLICT (date, ticker) DO UPDATE SET price = EXCLUDED.price`

	slog.Debug(
		"UpsertDailyPrices start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("query", query),
		slog.Int("count", len(prices)),
	)
	defer func() {
		if err != nil {
			slog.Error("UpsertDailyPrices failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertDailyPrices completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	for _, batch := range repository.Chunk(prices, r.batchSize) {
		dates := make([]time.Time, 0, len(batch))
		tickers := make([]string, 0, len(batch))
		values := make([]float64, 0, len(batch))

		for _, p := range batch {
			dates = append(dates, p.Date.Time())
			tickers = append(tickers, p.Ticker)
			values = append(values, p.Price)
		}

		_, err = r.txOrDb(ctx).ExecContext(ctx, query, dates, tickers, values)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetLatestPriceDates returns the latest stored date per ticker.
func (r *Postgres) GetLatestPriceDates(ctx context.Context) (latest map[string]date.Date, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetLatestPriceDates"
	query := `SELECT ticker AS key, MAX(date) AS date FROM daily_prices GROUP BY ticker`

	slog.Debug("GetLatestPriceDates start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetLatestPriceDates failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetLatestPriceDates completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	var rows []dbModel.LatestDate
	err = r.txOrDb(ctx).SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, err
	}

	latest = make(map[string]date.Date, len(rows))
	for _, row := range rows {
		latest[row.Key] = row.Date
	}

	return latest, nil
}

// GetAnchorDate returns the latest price date at or before valuationDate across all tickers.
func (r *Postgres) GetAnchorDate(ctx context.Context, valuationDate date.Date) (anchor date.Date, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetAnchorDate"
	query := `SELECT MAX(date) FROM daily_prices WHERE date <= $1`

	slog.Debug(
		"GetAnchorDate start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("query", query),
		slog.String("valuationDate", valuationDate.String()),
	)
	defer func() {
		if err != nil {
			slog.Error("GetAnchorDate failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetAnchorDate completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, valuationDate.Time()).Scan(&anchor)
	if err != nil {
		return date.Date{}, err
	}
	if anchor.IsZero() {
		return date.Date{}, repository.ErrNotFound
	}

	return anchor, nil
}

func (r *Postgres) GetPricesOn(ctx context.Context, d date.Date) (prices []model.DailyPrice, err error) {
	query := `SELECT date, ticker, price FROM daily_prices WHERE date = $1 ORDER BY ticker`
	return r.selectPrices(ctx, "Postgres.GetPricesOn", query, d)
}

func (r *Postgres) GetPricesSince(ctx context.Context, d date.Date) (prices []model.DailyPrice, err error) {
	query := `SELECT date, ticker, price FROM daily_prices WHERE date >= $1 ORDER BY date, ticker`
	return r.selectPrices(ctx, "Postgres.GetPricesSince", query, d)
}

func (r *Postgres) selectPrices(ctx context.Context, op, query string, d date.Date) (prices []model.DailyPrice, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug(
		"selectPrices start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("query", query),
		slog.String("date", d.String()),
	)
	defer func() {
		if err != nil {
			slog.Error("selectPrices failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("selectPrices completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("rows", len(prices)))
		}
	}()

	var rows []dbModel.DailyPrice
	err = r.txOrDb(ctx).SelectContext(ctx, &rows, query, d.Time())
	if err != nil {
		return nil, err
	}

	prices = make([]model.DailyPrice, 0, len(rows))
	for _, row := range rows {
		prices = append(prices, dbConverter.ConvertDailyPrice(row))
	}

	return prices, nil
}
