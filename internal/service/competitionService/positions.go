package competitionService

import (
	"context"
	"log/slog"

	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/KotFed0t/stockpicking_tracker/utils"
)

// SavePositions syncs the positions table with the configured positions.
// Stored positions that are no longer configured are removed.
func (s *CompetitionService) SavePositions(ctx context.Context) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CompetitionService.SavePositions"

	configured := s.positions.Positions()

	slog.Debug("SavePositions start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("positions", len(configured)))
	defer func() {
		slog.Debug("SavePositions finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	stored, err := s.repo.GetPositions(ctx)
	if err != nil {
		slog.Error("got error from repo.GetPositions", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	type key struct{ name, ticker string }
	keep := make(map[key]struct{}, len(configured))
	for _, p := range configured {
		keep[key{p.Name, p.Ticker}] = struct{}{}
	}

	var stale []model.Position
	for _, p := range stored {
		if _, ok := keep[key{p.Name, p.Ticker}]; !ok {
			stale = append(stale, p)
		}
	}

	return s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if len(stale) > 0 {
			slog.Info("removing positions no longer configured", slog.String("rqID", rqID), slog.Int("count", len(stale)))
			if err := s.repo.DeletePositions(ctx, stale); err != nil {
				return err
			}
		}
		return s.repo.UpsertPositions(ctx, configured)
	})
}
