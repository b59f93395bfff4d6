package xslsxGenerator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/KotFed0t/stockpicking_tracker/internal/date"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/KotFed0t/stockpicking_tracker/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	leaderboardSheet = "Leaderboard"
	positionsSheet   = "Positions"
	valuesSheet      = "Daily values"
)

type XSLSXGenerator struct{}

func New() *XSLSXGenerator {
	return &XSLSXGenerator{}
}

func (g *XSLSXGenerator) Generate(ctx context.Context, report model.Report) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XSLSXGenerator.Generate"

	if len(report.Metrics) == 0 && len(report.Positions) == 0 {
		return nil, "", errors.New("empty report")
	}

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	if err = f.SetSheetName("Sheet1", leaderboardSheet); err != nil {
		return nil, "", err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
	if err != nil {
		return nil, "", err
	}

	fillers := []func(*excelize.File, model.Report, int) error{
		g.fillLeaderboard,
		g.fillPositions,
		g.fillValues,
	}
	for _, fill := range fillers {
		if err = fill(f, report, headerStyle); err != nil {
			slog.Error("got error while filling sheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while Saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func roundPtr(v *float64, places int32) any {
	if v == nil {
		return nil
	}
	return round(*v, places)
}

func writeHeader(f *excelize.File, sheet string, style int, titles ...string) error {
	for i, title := range titles {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err = f.SetCellStr(sheet, cell, title); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(titles), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// fillLeaderboard keeps the metric order, which is by total return.
func (g *XSLSXGenerator) fillLeaderboard(f *excelize.File, report model.Report, style int) error {
	err := writeHeader(f, leaderboardSheet, style,
		"rank", "participant", "initial value", "final value", "total return %", "annualized return %", "last updated")
	if err != nil {
		return err
	}

	for i, m := range report.Metrics {
		err = writeRow(f, leaderboardSheet, i+2,
			i+1,
			m.Name,
			round(m.InitialValue, 2),
			round(m.FinalValue, 2),
			round(m.TotalReturnPct, 2),
			round(m.AnnualizedReturnPct, 2),
			m.LastUpdated.String(),
		)
		if err != nil {
			return err
		}
	}

	return f.SetColWidth(leaderboardSheet, "B", "B", 20)
}

func (g *XSLSXGenerator) fillPositions(f *excelize.File, report model.Report, style int) error {
	if _, err := f.NewSheet(positionsSheet); err != nil {
		return err
	}

	err := writeHeader(f, positionsSheet, style,
		"participant", "ticker", "exchange", "lookup ticker", "weight", "shares",
		"price at "+report.AnchorDate.String(), "target allocation", "allocation")
	if err != nil {
		return err
	}

	positions := make([]model.Position, len(report.Positions))
	copy(positions, report.Positions)
	sort.SliceStable(positions, func(i, j int) bool { return positions[i].Name < positions[j].Name })

	for i, p := range positions {
		err = writeRow(f, positionsSheet, i+2,
			p.Name,
			p.Ticker,
			p.Exchange,
			p.FormattedTicker,
			p.Weight,
			roundPtr(p.Shares, 4),
			roundPtr(p.PriceAtStart, 4),
			roundPtr(p.TargetAllocation, 2),
			roundPtr(p.Allocation, 2),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// fillValues pivots the value series into one row per date with a value and
// a percent change column per participant.
func (g *XSLSXGenerator) fillValues(f *excelize.File, report model.Report, style int) error {
	if _, err := f.NewSheet(valuesSheet); err != nil {
		return err
	}

	byDate := make(map[date.Date]map[string]model.PortfolioValue)
	names := make(map[string]struct{})
	for _, v := range report.Values {
		if byDate[v.Date] == nil {
			byDate[v.Date] = make(map[string]model.PortfolioValue)
		}
		byDate[v.Date][v.Name] = v
		names[v.Name] = struct{}{}
	}

	participants := make([]string, 0, len(names))
	for name := range names {
		participants = append(participants, name)
	}
	sort.Strings(participants)

	dates := make([]date.Date, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	titles := []string{"date"}
	for _, name := range participants {
		titles = append(titles, name, name+" %")
	}
	if err := writeHeader(f, valuesSheet, style, titles...); err != nil {
		return err
	}

	for i, d := range dates {
		row := []any{d.String()}
		for _, name := range participants {
			v, ok := byDate[d][name]
			if !ok {
				row = append(row, nil, nil)
				continue
			}
			row = append(row, round(v.Value, 2), round(v.PctChange, 4))
		}
		if err := writeRow(f, valuesSheet, i+2, row...); err != nil {
			return err
		}
	}

	return nil
}
