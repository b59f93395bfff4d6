package postgres

import (
	"context"
	"log/slog"

	"github.com/KotFed0t/stockpicking_tracker/data/repository"
	"github.com/KotFed0t/stockpicking_tracker/internal/converter/dbConverter"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/KotFed0t/stockpicking_tracker/internal/model/dbModel"
	"github.com/KotFed0t/stockpicking_tracker/utils"
)

// UpsertPositions writes the configured fields of positions. Allocation columns are left untouched.
func (r *Postgres) UpsertPositions(ctx context.Context, positions []model.Position) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpsertPositions"
	query := `
		INSERT INTO positions (name, ticker, exchange, weight, formatted_ticker)
		SELECT u.name, u.ticker, u.exchange, u.weight, u.formatted_ticker
		FROM UNNEST(
			$1::text[],
			$2::text[],
			$3::text[],
			$4::double precision[],
			$5::text[]
		) AS u(name, ticker, exchange, weight, formatted_ticker)
		ON CONFLICT (name, ticker) DO UPDATE SET
			exchange = EXCLUDED.exchange,
			weight = EXCLUDED.weight,
			formatted_ticker = EXCLUDED.formatted_ticker`

	slog.Debug(
		"UpsertPositions start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("query", query),
		slog.Int("count", len(positions)),
	)
	defer func() {
		if err != nil {
			slog.Error("UpsertPositions failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertPositions completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	for _, batch := range repository.Chunk(positions, r.batchSize) {
		names := make([]string, 0, len(batch))
		tickers := make([]string, 0, len(batch))
		exchanges := make([]string, 0, len(batch))
		weights := make([]float64, 0, len(batch))
		formatted := make([]string, 0, len(batch))

		for _, p := range batch {
			names = append(names, p.Name)
			tickers = append(tickers, p.Ticker)
			exchanges = append(exchanges, p.Exchange)
			weights = append(weights, p.Weight)
			formatted = append(formatted, p.FormattedTicker)
		}

		_, err = r.txOrDb(ctx).ExecContext(ctx, query, names, tickers, exchanges, weights, formatted)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *Postgres) DeletePositions(ctx context.Context, positions []model.Position) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeletePositions"
	query := `
		DELETE FROM positions AS p
		USING UNNEST($1::text[], $2::text[]) AS u(name, ticker)
		WHERE p.name = u.name AND p.ticker = u.ticker`

	names := make([]string, 0, len(positions))
	tickers := make([]string, 0, len(positions))
	for _, p := range positions {
		names = append(names, p.Name)
		tickers = append(tickers, p.Ticker)
	}

	slog.Debug(
		"DeletePositions start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("query", query),
		slog.Any("params", map[string]any{"names": names, "tickers": tickers}),
	)
	defer func() {
		if err != nil {
			slog.Error("DeletePositions failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeletePositions completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, names, tickers)
	if err != nil {
		return err
	}

	return nil
}

func (r *Postgres) GetPositions(ctx context.Context) (positions []model.Position, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetPositions"
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

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var p dbModel.Position
		err = rows.StructScan(&p)
		if err != nil {
			return nil, err
		}
		positions = append(positions, dbConverter.ConvertPosition(p))
	}

	return positions, rows.Err()
}

// UpdateAllocations writes the allocation columns. Nil fields are stored as NULL.
func (r *Postgres) UpdateAllocations(ctx context.Context, positions []model.Position) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdateAllocations"
	query := `
		UPDATE positions AS p
		SET shares = u.shares,
		    price_at_start = u.price_at_start,
		    target_allocation = u.target_allocation,
		    allocation = u.allocation
		FROM UNNEST(
			$1::text[],
			$2::text[],
			$3::double precision[],
			$4::double precision[],
			$5::double precision[],
			$6::double precision[]
		) AS u(name, ticker, shares, price_at_start, target_allocation, allocation)
		WHERE p.name = u.name AND p.ticker = u.ticker`

	slog.Debug(
		"UpdateAllocations start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("query", query),
		slog.Int("count", len(positions)),
	)
	defer func() {
		if err != nil {
			slog.Error("UpdateAllocations failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateAllocations completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	for _, batch := range repository.Chunk(positions, r.batchSize) {
		names := make([]string, 0, len(batch))
		tickers := make([]string, 0, len(batch))
		shares := make([]*float64, 0, len(batch))
		prices := make([]*float64, 0, len(batch))
		targets := make([]*float64, 0, len(batch))
		allocations := make([]*float64, 0, len(batch))

		for _, p := range batch {
			names = append(names, p.Name)
			tickers = append(tickers, p.Ticker)
			shares = append(shares, p.Shares)
			prices = append(prices, p.PriceAtStart)
			targets = append(targets, p.TargetAllocation)
			allocations = append(allocations, p.Allocation)
		}

		_, err = r.txOrDb(ctx).ExecContext(ctx, query, names, tickers, shares, prices, targets, allocations)
		if err != nil {
			return err
		}
	}

	return nil
}
