package competitionService

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/KotFed0t/stockpicking_tracker/internal/calculator"
	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/KotFed0t/stockpicking_tracker/utils"
)

// CalculatePortfolioValues rolls stored allocations forward over stored prices from anchor on.
// Rows before the anchor, rows of participants that can no longer be valued and rows of
// participants no longer configured are removed in the same transaction.
func (s *CompetitionService) CalculatePortfolioValues(ctx context.Context, anchor date.Date, report *model.RunReport) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CompetitionService.CalculatePortfolioValues"

	slog.Debug("CalculatePortfolioValues start", slog.String("rqID", rqID), slog.String("op", op), slog.String("anchor", anchor.String()))
	defer func() {
		slog.Debug("CalculatePortfolioValues finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	positions, err := s.repo.GetPositions(ctx)
	if err != nil {
		slog.Error("got error from repo.GetPositions", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	prices, err := s.repo.GetPricesSince(ctx, anchor)
	if err != nil {
		slog.Error("got error from repo.GetPricesSince", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	groups := calculator.GroupPositions(positions)
	series, errs := calculator.ValuePortfolios(anchor, groups, prices)

	stored, err := s.repo.GetPortfolioValues(ctx)
	if err != nil {
		slog.Error("got error from repo.GetPortfolioValues", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	// rows of participants that are no longer configured
	var stale []string
	seen := make(map[string]struct{})
	for _, v := range stored {
		if _, ok := groups[v.Name]; ok {
			continue
		}
		if _, ok := seen[v.Name]; !ok {
			seen[v.Name] = struct{}{}
			stale = append(stale, v.Name)
		}
	}
	if len(stale) > 0 {
		slog.Info("removing values of participants no longer configured", slog.String("rqID", rqID), slog.Any("names", stale))
	}

	var degenerate []string
	for _, e := range errs {
		var d *calculator.DegenerateSeriesError
		if errors.As(e, &d) {
			report.DegenerateNames[d.Name] = d.Reason
			degenerate = append(degenerate, d.Name)
		}
		slog.Warn("participant not valued", slog.String("rqID", rqID), slog.String("op", op), slog.String("reason", e.Error()))
	}

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	var values []model.PortfolioValue
	for _, name := range names {
		values = append(values, series[name]...)
	}

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.DeletePortfolioValuesBefore(ctx, anchor); err != nil {
			return err
		}
		if remove := append(stale, degenerate...); len(remove) > 0 {
			if err := s.repo.DeletePortfolioValuesOf(ctx, remove); err != nil {
				return err
			}
		}
		return s.repo.UpsertPortfolioValues(ctx, values)
	})
	if err != nil {
		slog.Error("got error while saving portfolio values", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	report.ValuedParticipants = names
	slog.Info("portfolio values saved", slog.String("rqID", rqID), slog.Int("participants", len(names)), slog.Int("rows", len(values)))

	return nil
}
