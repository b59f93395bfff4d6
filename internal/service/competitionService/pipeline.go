package competitionService

import (
	"context"
	"errors"
	"log/slog"

	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/KotFed0t/stockpicking_tracker/internal/service"
	"github.com/KotFed0t/stockpicking_tracker/utils"
)

// ProcessAllData runs every stage in order. A stage only starts after the previous one
// has persisted its output. Only storage failures and a missing anchor date abort the run.
func (s *CompetitionService) ProcessAllData(ctx context.Context) (report *model.RunReport, err error) {
	ctx = utils.CreateCtxWithRqID(ctx)
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CompetitionService.ProcessAllData"

	slog.Info("ProcessAllData start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("ProcessAllData failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Info("ProcessAllData completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	token, ok, err := s.locker.Acquire(ctx, lockKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, service.ErrPipelineLocked
	}
	defer func() {
		if releaseErr := s.locker.Release(context.WithoutCancel(ctx), lockKey, token); releaseErr != nil {
			slog.Warn("can't release pipeline lock", slog.String("rqID", rqID), slog.String("err", releaseErr.Error()))
		}
	}()

	report = model.NewRunReport(rqID)

	if err = s.SavePositions(ctx); err != nil {
		return report, err
	}

	if err = s.DownloadAndSavePrices(ctx, report); err != nil {
		return report, err
	}

	anchor, err := s.CalculateAllocations(ctx, report)
	if err != nil {
		return report, err
	}

	if err = s.CalculatePortfolioValues(ctx, anchor, report); err != nil {
		return report, err
	}

	if err = s.CalculatePerformanceMetrics(ctx, report); err != nil {
		return report, err
	}

	if s.cfg.Report.Enabled {
		if exportErr := s.ExportReport(ctx, anchor, report); exportErr != nil && !errors.Is(exportErr, context.Canceled) {
			slog.Error("report export failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", exportErr.Error()))
		}
	}

	return report, nil
}
