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

func (r *Postgres) UpsertPortfolioValues(ctx context.Context, values []model.PortfolioValue) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpsertPortfolioValues"
	query := `
		INSERT INTO portfolio_values (date, name, value, pct_change)
		SELECT u.date, u.name, u.value, u.pct_change
		FROM UNNEST(
			$1::date[],
			$2::text[],
			$3::double precision[],
			$4::double precision[]
		) AS u(date, name, value, pct_change)
		ON CONFLICT (date, name) DO UPDATE SET
			value = EXCLUDED.value,
			pct_change = EXCLUDED.pct_change`

	slog.Debug(
		"UpsertPortfolioValues start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("query", query),
		slog.Int("count", len(values)),
	)
	defer func() {
		if err != nil {
			slog.Error("UpsertPortfolioValues failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertPortfolioValues completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	for _, batch := range repository.Chunk(values, r.batchSize) {
		dates := make([]time.Time, 0, len(batch))
		names := make([]string, 0, len(batch))
		amounts := make([]float64, 0, len(batch))
		pcts := make([]float64, 0, len(batch))

		for _, v := range batch {
			dates = append(dates, v.Date.Time())
			names = append(names, v.Name)
			amounts = append(amounts, v.Value)
			pcts = append(pcts, v.PctChange)
		}

		_, err = r.txOrDb(ctx).ExecContext(ctx, query, dates, names, amounts, pcts)
		if err != nil {
			return err
		}
	}

	return nil
}

// DeletePortfolioValuesBefore removes rows that predate the anchor date.
func (r *Postgres) DeletePortfolioValuesBefore(ctx context.Context, anchor date.Date) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeletePortfolioValuesBefore"
	query := `DELETE FROM portfolio_values WHERE date < $1`

	slog.Debug(
		"DeletePortfolioValuesBefore start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("query", query),
		slog.String("anchor", anchor.String()),
	)
	defer func() {
		if err != nil {
			slog.Error("DeletePortfolioValuesBefore failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeletePortfolioValuesBefore completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, anchor.Time())
	if err != nil {
		return err
	}

	return nil
}

// DeletePortfolioValuesOf removes every row of the given participants.
func (r *Postgres) DeletePortfolioValuesOf(ctx context.Context, names []string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeletePortfolioValuesOf"
	query := `DELETE FROM portfolio_values WHERE name = ANY($1::text[])`

	slog.Debug(
		"DeletePortfolioValuesOf start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("query", query),
		slog.Any("params", names),
	)
	defer func() {
		if err != nil {
			slog.Error("DeletePortfolioValuesOf failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeletePortfolioValuesOf completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, names)
	if err != nil {
		return err
	}

	return nil
}

func (r *Postgres) GetPortfolioValues(ctx context.Context) (values []model.PortfolioValue, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetPortfolioValues"
	query := `SELECT date, name, value, pct_change FROM portfolio_values ORDER BY date, name`

	slog.Debug("GetPortfolioValues start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetPortfolioValues failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetPortfolioValues completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	var rows []dbModel.PortfolioValue
	err = r.txOrDb(ctx).SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, err
	}

	values = make([]model.PortfolioValue, 0, len(rows))
	for _, row := range rows {
		values = append(values, dbConverter.ConvertPortfolioValue(row))
	}

	return values, nil
}

// ReplacePerformanceMetrics swaps the whole table for metrics. Callers wrap it in a transaction.
func (r *Postgres) ReplacePerformanceMetrics(ctx context.Context, metrics []model.PerformanceMetric) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.ReplacePerformanceMetrics"
	deleteQuery := `DELETE FROM performance_metrics`
	insertQuery := `
		INSERT INTO performance_metrics (
			name, initial_value, final_value,
			total_return_pct, annualized_return_pct, last_updated
		)
		SELECT u.name, u.initial_value, u.final_value,
		       u.total_return_pct, u.annualized_return_pct, u.last_updated
		FROM UNNEST(
			$1::text[],
			$2::double precision[],
			$3::double precision[],
			$4::double precision[],
			$5::double precision[],
			$6::date[]
		) AS u(name, initial_value, final_value, total_return_pct, annualized_return_pct, last_updated)`

	slog.Debug(
		"ReplacePerformanceMetrics start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("query", insertQuery),
		slog.Any("params", metrics),
	)
	defer func() {
		if err != nil {
			slog.Error("ReplacePerformanceMetrics failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("ReplacePerformanceMetrics completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, deleteQuery)
	if err != nil {
		return err
	}

	if len(metrics) == 0 {
		return nil
	}

	names := make([]string, 0, len(metrics))
	initial := make([]float64, 0, len(metrics))
	final := make([]float64, 0, len(metrics))
	total := make([]float64, 0, len(metrics))
	annualized := make([]float64, 0, len(metrics))
	updated := make([]time.Time, 0, len(metrics))

	for _, m := range metrics {
		names = append(names, m.Name)
		initial = append(initial, m.InitialValue)
		final = append(final, m.FinalValue)
		total = append(total, m.TotalReturnPct)
		annualized = append(annualized, m.AnnualizedReturnPct)
		updated = append(updated, m.LastUpdated.Time())
	}

	_, err = r.txOrDb(ctx).ExecContext(ctx, insertQuery, names, initial, final, total, annualized, updated)
	if err != nil {
		return err
	}

	return nil
}

func (r *Postgres) GetPerformanceMetrics(ctx context.Context) (metrics []model.PerformanceMetric, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetPerformanceMetrics"
	query := `
		SELECT name, initial_value, final_value, total_return_pct, annualized_return_pct, last_updated
		FROM performance_metrics
		ORDER BY total_return_pct DESC, name`

	slog.Debug("GetPerformanceMetrics start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetPerformanceMetrics failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetPerformanceMetrics completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	var rows []dbModel.PerformanceMetric
	err = r.txOrDb(ctx).SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, err
	}

	metrics = make([]model.PerformanceMetric, 0, len(rows))
	for _, row := range rows {
		metrics = append(metrics, dbConverter.ConvertPerformanceMetric(row))
	}

	return metrics, nil
}
