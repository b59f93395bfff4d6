package competitionService

import (
	"context"
	"errors"
	"log/slog"

	"github.com/KotFed0t/stockpicking_tracker/internal/calculator"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/KotFed0t/stockpicking_tracker/utils"
)

// CalculatePerformanceMetrics summarizes the value series of every configured participant
// and replaces the metrics table.
func (s *CompetitionService) CalculatePerformanceMetrics(ctx context.Context, report *model.RunReport) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CompetitionService.CalculatePerformanceMetrics"

	slog.Debug("CalculatePerformanceMetrics start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("CalculatePerformanceMetrics finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	values, err := s.repo.GetPortfolioValues(ctx)
	if err != nil {
		slog.Error("got error from repo.GetPortfolioValues", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	positions, err := s.repo.GetPositions(ctx)
	if err != nil {
		slog.Error("got error from repo.GetPositions", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	byName := make(map[string][]model.PortfolioValue)
	for _, v := range values {
		byName[v.Name] = append(byName[v.Name], v)
	}

	// only configured participants are ranked
	names := calculator.GroupPositions(positions).Names()

	runDate := s.runDate()
	metrics := make([]model.PerformanceMetric, 0, len(names))
	for _, name := range names {
		if len(byName[name]) == 0 {
			continue
		}
		metric, err := calculator.Summarize(name, byName[name], runDate)
		var d *calculator.DegenerateSeriesError
		if errors.As(err, &d) {
			report.DegenerateNames[name] = d.Reason
			slog.Warn("participant not summarized", slog.String("rqID", rqID), slog.String("op", op), slog.String("reason", err.Error()))
			continue
		}
		if err != nil {
			return err
		}
		metrics = append(metrics, metric)
		report.SummarizedNames = append(report.SummarizedNames, name)
	}

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.repo.ReplacePerformanceMetrics(ctx, metrics)
	})
	if err != nil {
		slog.Error("got error from repo.ReplacePerformanceMetrics", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Info("performance metrics saved", slog.String("rqID", rqID), slog.Int("participants", len(metrics)))

	return nil
}
