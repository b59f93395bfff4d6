package sqlite

import (
	"context"
	"log/slog"

	"github.com/KotFed0t/stockpicking_tracker/data/repository"
	"github.com/KotFed0t/stockpicking_tracker/internal/converter/dbConverter"
	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/KotFed0t/stockpicking_tracker/internal/model/dbModel"
	"github.com/KotFed0t/stockpicking_tracker/utils"
)

func (r *Sqlite) UpsertDailyPrices(ctx context.Context, prices []model.DailyPrice) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Sqlite.UpsertDailyPrices"

	slog.Debug("UpsertDailyPrices start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("count", len(prices)))
	defer func() {
		if err != nil {
			slog.Error("UpsertDailyPrices failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertDailyPrices completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows := make([][]any, 0, len(prices))
	for _, p := range prices {
		rows = append(rows, []any{p.Date, p.Ticker, p.Price})
	}

	return r.exec(ctx, upsert{
		table:    "daily_prices",
		columns:  []string{"date", "ticker", "price"},
		conflict: []string{"date", "ticker"},
		update:   []string{"price"},
	}, rows)
}

// GetLatestPriceDates returns the latest stored date per ticker.
func (r *Sqlite) GetLatestPriceDates(ctx context.Context) (latest map[string]date.Date, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Sqlite.GetLatestPriceDates"
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
func (r *Sqlite) GetAnchorDate(ctx context.Context, valuationDate date.Date) (anchor date.Date, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Sqlite.GetAnchorDate"
	query := `SELECT MAX(date) FROM daily_prices WHERE date <= ?`

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

	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, valuationDate).Scan(&anchor)
	if err != nil {
		return date.Date{}, err
	}
	if anchor.IsZero() {
		return date.Date{}, repository.ErrNotFound
	}

	return anchor, nil
}

func (r *Sqlite) GetPricesOn(ctx context.Context, d date.Date) (prices []model.DailyPrice, err error) {
	query := `SELECT date, ticker, price FROM daily_prices WHERE date = ? ORDER BY ticker`
	return r.selectPrices(ctx, "Sqlite.GetPricesOn", query, d)
}

func (r *Sqlite) GetPricesSince(ctx context.Context, d date.Date) (prices []model.DailyPrice, err error) {
	query := `SELECT date, ticker, price FROM daily_prices WHERE date >= ? ORDER BY date, ticker`
	return r.selectPrices(ctx, "Sqlite.GetPricesSince", query, d)
}

func (r *Sqlite) selectPrices(ctx context.Context, op, query string, d date.Date) (prices []model.DailyPrice, err error) {
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
	err = r.txOrDb(ctx).SelectContext(ctx, &rows, query, d)
	if err != nil {
		return nil, err
	}

	prices = make([]model.DailyPrice, 0, len(rows))
	for _, row := range rows {
		prices = append(prices, dbConverter.ConvertDailyPrice(row))
	}

	return prices, nil
}
