package sqlite

import (
	"context"
	"log/slog"

	"github.com/KotFed0t/stockpicking_tracker/internal/converter/dbConverter"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/KotFed0t/stockpicking_tracker/internal/model/dbModel"
	"github.com/KotFed0t/stockpicking_tracker/utils"
)

// UpsertPositions writes the configured fields of positions. Allocation columns are left untouched.
func (r *Sqlite) UpsertPositions(ctx context.Context, positions []model.Position) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Sqlite.UpsertPositions"

	slog.Debug("UpsertPositions start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("count", len(positions)))
	defer func() {
		if err != nil {
			slog.Error("UpsertPositions failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertPositions completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows := make([][]any, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, []any{p.Name, p.Ticker, p.Exchange, p.Weight, p.FormattedTicker})
	}

	return r.exec(ctx, upsert{
		table:    "positions",
		columns:  []string{"name", "ticker", "exchange", "weight", "formatted_ticker"},
		conflict: []string{"name", "ticker"},
		update:   []string{"exchange", "weight", "formatted_ticker"},
	}, rows)
}

func (r *Sqlite) DeletePositions(ctx context.Context, positions []model.Position) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Sqlite.DeletePositions"
	query := `DELETE FROM positions WHERE name = ? AND ticker = ?`

	slog.Debug("DeletePositions start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("DeletePositions failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeletePositions completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	for _, p := range positions {
		_, err = r.txOrDb(ctx).ExecContext(ctx, query, p.Name, p.Ticker)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *Sqlite) GetPositions(ctx context.Context) (positions []model.Position, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Sqlite.GetPositions"
	query := `
		SELECT name, ticker, exchange, weight, formatted_ticker,
		       shares, price_at_start, target_allocation, allocation
		FROM positions
		ORDER BY name, ticker`

	slog.Debug("GetPositions start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetPositions failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetPositions completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	var rows []dbModel.Position
	err = r.txOrDb(ctx).SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, err
	}

	positions = make([]model.Position, 0, len(rows))
	for _, row := range rows {
		positions = append(positions, dbConverter.ConvertPosition(row))
	}

	return positions, nil
}

// UpdateAllocations writes the allocation columns. Nil fields are stored as NULL.
func (r *Sqlite) UpdateAllocations(ctx context.Context, positions []model.Position) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Sqlite.UpdateAllocations"
	query := `
		UPDATE positions
		SET shares = ?, price_at_start = ?, target_allocation = ?, allocation = ?
		WHERE name = ? AND ticker = ?`

	slog.Debug("UpdateAllocations start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Int("count", len(positions)))
	defer func() {
		if err != nil {
			slog.Error("UpdateAllocations failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateAllocations completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	for _, p := range positions {
		_, err = r.txOrDb(ctx).ExecContext(
			ctx,
			query,
			dbConverter.ToNullable(p.Shares),
			dbConverter.ToNullable(p.PriceAtStart),
			dbConverter.ToNullable(p.TargetAllocation),
			dbConverter.ToNullable(p.Allocation),
			p.Name,
			p.Ticker,
		)
		if err != nil {
			return err
		}
	}

	return nil
}
