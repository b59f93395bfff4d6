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

func (r *Postgres) UpsertExchangeRates(ctx context.Context, rates []model.ExchangeRate) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpsertExchangeRates"
	query := `
		INSERT INTO exchange_rates (date, from_currency, to_currency, rate)
		SELECT u.date, u.from_currency, u.to_currency, u.rate
		FROM UNNEST(
			$1::date[],
			$2::text[],
			$3::text[],
			$4::double precision[]
		) AS u(date, from_currency, to_currency, rate)
		ON CONFLICT (date, from_currency, to_currency) DO UPDATE SET rate = EXCLUDED.rate`

	slog.Debug(
		"UpsertExchangeRates start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("query", query),
		slog.Int("count", len(rates)),
	)
	defer func() {
		if err != nil {
			slog.Error("UpsertExchangeRates failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertExchangeRates completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	for _, batch := range repository.Chunk(rates, r.batchSize) {
		dates := make([]time.Time, 0, len(batch))
		from := make([]string, 0, len(batch))
		to := make([]string, 0, len(batch))
		values := make([]float64, 0, len(batch))

		for _, rate := range batch {
			dates = append(dates, rate.Date.Time())
			from = append(from, rate.FromCurrency)
			to = append(to, rate.ToCurrency)
			values = append(values, rate.Rate)
		}

		_, err = r.txOrDb(ctx).ExecContext(ctx, query, dates, from, to, values)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetLatestRateDate returns repository.ErrNotFound when the pair has no rates.
func (r *Postgres) GetLatestRateDate(ctx context.Context, from, to string) (latest date.Date, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetLatestRateDate"
	query := `SELECT MAX(date) FROM exchange_rates WHERE from_currency = $1 AND to_currency = $2`

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

func (r *Postgres) GetExchangeRates(ctx context.Context, from, to string, since date.Date) (rates []model.ExchangeRate, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetExchangeRates"
	query := `
		SELECT date, from_currency, to_currency, rate
		FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND date >= $3
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
	err = r.txOrDb(ctx).SelectContext(ctx, &rows, query, from, to, since.Time())
	if err != nil {
		return nil, err
	}

	rates = make([]model.ExchangeRate, 0, len(rows))
	for _, row := range rows {
		rates = append(rates, dbConverter.ConvertExchangeRate(row))
	}

	return rates, nil
}
