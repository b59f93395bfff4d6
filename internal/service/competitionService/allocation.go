package competitionService

import (
	"context"
	"errors"
	"log/slog"

	"github.com/KotFed0t/stockpicking_tracker/data/repository"
	"github.com/KotFed0t/stockpicking_tracker/internal/calculator"
	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/KotFed0t/stockpicking_tracker/utils"
)

// ResolveAnchorDate returns the latest price date at or before the valuation date.
func (s *CompetitionService) ResolveAnchorDate(ctx context.Context) (date.Date, error) {
	valuationDate := s.cfg.Competition.ValuationDate

	anchor, err := s.repo.GetAnchorDate(ctx, valuationDate)
	if errors.Is(err, repository.ErrNotFound) {
		return date.Date{}, &calculator.NoAnchorDateError{ValuationDate: valuationDate}
	}
	if err != nil {
		return date.Date{}, err
	}
	return anchor, nil
}

// CalculateAllocations prices every position at the anchor date and stores share counts.
// Nothing is written when no anchor date exists.
func (s *CompetitionService) CalculateAllocations(ctx context.Context, report *model.RunReport) (anchor date.Date, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CompetitionService.CalculateAllocations"

	slog.Debug("CalculateAllocations start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("CalculateAllocations finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	anchor, err = s.ResolveAnchorDate(ctx)
	if err != nil {
		slog.Error("can't resolve anchor date", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return date.Date{}, err
	}

	positions, err := s.repo.GetPositions(ctx)
	if err != nil {
		slog.Error("got error from repo.GetPositions", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return date.Date{}, err
	}

	prices, err := s.repo.GetPricesOn(ctx, anchor)
	if err != nil {
		slog.Error("got error from repo.GetPricesOn", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return date.Date{}, err
	}

	anchorPrices := make(map[string]float64, len(prices))
	for _, p := range prices {
		anchorPrices[p.Ticker] = p.Price
	}

	allocs, errs := calculator.Allocate(
		calculator.GroupPositions(positions),
		anchorPrices,
		anchor,
		s.cfg.Competition.InitialCapital,
	)
	for _, e := range errs {
		var missing *calculator.MissingTickerPriceError
		if errors.As(e, &missing) {
			report.SkippedPositions = append(report.SkippedPositions, missing.Name+"/"+missing.Ticker)
		}
		slog.Warn("position skipped", slog.String("rqID", rqID), slog.String("op", op), slog.String("reason", e.Error()))
	}

	updated := calculator.ApplyAllocations(positions, allocs)

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.repo.UpdateAllocations(ctx, updated)
	})
	if err != nil {
		slog.Error("got error from repo.UpdateAllocations", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return date.Date{}, err
	}

	slog.Info(
		"allocations saved",
		slog.String("rqID", rqID),
		slog.String("anchor", anchor.String()),
		slog.Int("positions", len(updated)),
		slog.Int("skipped", len(errs)),
	)

	return anchor, nil
}
