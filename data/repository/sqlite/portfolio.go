package sqlite

import (
	"context"
	"log/slog"
	"strings"

	"github.com/KotFed0t/stockpicking_tracker/internal/converter/dbConverter"
	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/KotFed0t/stockpicking_tracker/internal/model/dbModel"
	"github.com/KotFed0t/stockpicking_tracker/utils"
)

func (r *Sqlite) UpsertPortfolioValues(ctx context.Context, values []model.PortfolioValue) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Sqlite.UpsertPortfolioValues"

	slog.Debug("UpsertPortfolioValues start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("count", len(values)))
	defer func() {
		if err != nil {
			slog.Error("UpsertPortfolioValues failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertPortfolioValues completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows := make([][]any, 0, len(values))
	for _, v := range values {
		rows = append(rows, []any{v.Date, v.Name, v.Value, v.PctChange})
	}

	return r.exec(ctx, upsert{
		table:    "portfolio_values",
		columns:  []string{"date", "name", "value", "pct_change"},
		conflict: []string{"date", "name"},
		update:   []string{"value", "pct_change"},
	}, rows)
}

// DeletePortfolioValuesBefore removes rows that predate the anchor date.
func (r *Sqlite) DeletePortfolioValuesBefore(ctx context.Context, anchor date.Date) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Sqlite.DeletePortfolioValuesBefore"
	query := `DELETE FROM portfolio_values WHERE date < ?`

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

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, anchor)
	if err != nil {
		return err
	}

	return nil
}

// DeletePortfolioValuesOf removes every row of the given participants.
func (r *Sqlite) DeletePortfolioValuesOf(ctx context.Context, names []string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Sqlite.DeletePortfolioValuesOf"

	if len(names) == 0 {
		return nil
	}

	query := `DELETE FROM portfolio_values WHERE name IN (` +
		strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ") + `)`
	args := make([]any, 0, len(names))
	for _, n := range names {
		args = append(args, n)
	}

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

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	return nil
}

func (r *Sqlite) GetPortfolioValues(ctx context.Context) (values []model.PortfolioValue, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Sqlite.GetPortfolioValues"
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
func (r *Sqlite) ReplacePerformanceMetrics(ctx context.Context, metrics []model.PerformanceMetric) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Sqlite.ReplacePerformanceMetrics"

	slog.Debug("ReplacePerformanceMetrics start", slog.String("rqID", rqID), slog.String("op", op), slog.Any("params", metrics))
	defer func() {
		if err != nil {
			slog.Error("ReplacePerformanceMetrics failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("ReplacePerformanceMetrics completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, `DELETE FROM performance_metrics`)
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, []any{m.Name, m.InitialValue, m.FinalValue, m.TotalReturnPct, m.AnnualizedReturnPct, m.LastUpdated})
	}

	return r.exec(ctx, upsert{
		table:   "performance_metrics",
		columns: []string{"name", "initial_value", "final_value", "total_return_pct", "annualized_return_pct", "last_updated"},
	}, rows)
}

func (r *Sqlite) GetPerformanceMetrics(ctx context.Context) (metrics []model.PerformanceMetric, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Sqlite.GetPerformanceMetrics"
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
