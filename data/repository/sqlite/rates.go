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

func (r *Sqlite) UpsertExchangeRates(ctx context.Context, rates []model.ExchangeRate) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Sqlite.UpsertExchangeRates"

	slog.Debug("UpsertExchangeRates start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("count", len(rates)))
	defer func() {
		if err != nil {
			slog.Error("UpsertExchangeRates failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertExchangeRates completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows := make([][]any, 0, len(rates))
	for _, rate := range rates {
		rows = append(rows, []any{rate.Date, rate.FromCurrency, rate.ToCurrency, rate.Rate})
	}

	return r.exec(ctx, upsert{
		table:    "exchange_rates",
		columns:  []string{"date", "from_currency", "to_currency", "rate"},
		conflict: []string{"date", "from_currency", "to_currency"},
		update:   []string{"rate"},
	}, rows)
}

// GetLatestRateDate returns repository.ErrNotFound when the pair has no rates.
func (r *Sqlite) GetLatestRateDate(ctx context.Context, from, to string) (latest date.Date, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Sqlite.GetLatestRateDate"
	query := `SELECT MAX(date) FROM exchange_rates WHERE from_currency = ? AND to_currency = ?`

	slog.Debug(
		"GetLatestRateDate start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("query", query),
		slog.Any("params", map[string]any{"from": from, "to": to}),
	)
	defer func() {
		if err != nil {
			slog.Error("GetLatestRateDate failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetLatestRateDate completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, from, to).Scan(&latest)
	if err != nil {
		return date.Date{}, err
	}
	if latest.IsZero() {
		return date.Date{}, repository.ErrNotFound
	}

	return latest, nil
}

func (r *Sqlite) GetExchangeRates(ctx context.Context, from, to string, since date.Date) (rates []model.ExchangeRate, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Sqlite.GetExchangeRates"
	query := `
		SELECT date, from_currency, to_currency, rate
		FROM exchange_rates
		WHERE from_currency = ? AND to_currency = ? AND date >= ?
		ORDER BY date`

	slog.Debug(
		"GetExchangeRates start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("query", query),
		slog.Any("params", map[string]any{"from": from, "to": to, "since": since.String()}),
	)
	defer func() {
		if err != nil {
			slog.Error("GetExchangeRates failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetExchangeRates completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	var rows []dbModel.ExchangeRate
	err = r.txOrDb(ctx).SelectContext(ctx, &rows, query, from, to, since)
	if err != nil {
		return nil, err
	}

	rates = make([]model.ExchangeRate, 0, len(rows))
	for _, row := range rows {
		rates = append(rates, dbConverter.ConvertExchangeRate(row))
	}

	return rates, nil
}
