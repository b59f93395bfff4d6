package competitionService

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/KotFed0t/stockpicking_tracker/utils"
	"github.com/shopspring/decimal"
)

// BuildReport reads the persisted tables back for export.
func (s *CompetitionService) BuildReport(ctx context.Context, anchor date.Date) (model.Report, error) {
	metrics, err := s.repo.GetPerformanceMetrics(ctx)
	if err != nil {
		return model.Report{}, err
	}

	positions, err := s.repo.GetPositions(ctx)
	if err != nil {
		return model.Report{}, err
	}

	values, err := s.repo.GetPortfolioValues(ctx)
	if err != nil {
		return model.Report{}, err
	}

	return model.Report{
		AnchorDate: anchor,
		Metrics:    metrics,
		Positions:  positions,
		Values:     values,
	}, nil
}

// ExportReport writes the workbook to the report directory, uploads it when cloud
// storage is configured and sends the leaderboard when a notifier is configured.
func (s *CompetitionService) ExportReport(ctx context.Context, anchor date.Date, runReport *model.RunReport) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CompetitionService.ExportReport"

	slog.Debug("ExportReport start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("ExportReport finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	report, err := s.BuildReport(ctx, anchor)
	if err != nil {
		slog.Error("can't build report", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	fileBytes, ext, err := s.reportGenerator.Generate(ctx, report)
	if err != nil {
		slog.Error("got error from reportGenerator.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	filename := fmt.Sprintf("stockpicking_%s%s", s.runDate().String(), ext)

	if err = os.MkdirAll(s.cfg.Report.Dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(s.cfg.Report.Dir, filename)
	if err = os.WriteFile(path, fileBytes, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	slog.Info("report written", slog.String("rqID", rqID), slog.String("path", path))

	link := path
	if s.cloudStorage != nil {
		link, err = s.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), filename)
		if err != nil {
			slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return err
		}
		runReport.ReportLink = link

		if err := s.cloudStorage.DeleteOldFiles(ctx); err != nil {
			slog.Warn("can't delete old reports", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}

	if s.notifier != nil {
		if err = s.notifier.Send(ctx, LeaderboardText(report.Metrics, link)); err != nil {
			slog.Error("got error from notifier.Send", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return err
		}
	}

	return nil
}

// LeaderboardText renders metrics, already ordered by total return, as a plain text table.
func LeaderboardText(metrics []model.PerformanceMetric, link string) string {
	var sb strings.Builder
	sb.WriteString("Stock picking leaderboard\n")
	if len(metrics) > 0 {
		sb.WriteString("as of " + metrics[0].LastUpdated.String() + "\n")
	}
	sb.WriteString("\n")

	for i, m := range metrics {
		fmt.Fprintf(
			&sb,
			"%d. %s: %s (total %s%%, annualized %s%%)\n",
			i+1,
			m.Name,
			decimal.NewFromFloat(m.FinalValue).StringFixed(2),
			decimal.NewFromFloat(m.TotalReturnPct).StringFixed(2),
			decimal.NewFromFloat(m.AnnualizedReturnPct).StringFixed(2),
		)
	}

	if link != "" {
		sb.WriteString("\n" + link)
	}
	return sb.String()
}
