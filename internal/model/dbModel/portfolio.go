package dbModel

import "github.com/KotFed0t/stockpicking_tracker/internal/date"

type PortfolioValue struct {
	Date      date.Date `db:"date"`
	Name      string    `db:"name"`
	Value     float64   `db:"value"`
	PctChange float64   `db:"pct_change"`
}

type PerformanceMetric struct {
	Name                string    `db:"name"`
	InitialValue        float64   `db:"initial_value"`
	FinalValue          float64   `db:"final_value"`
	TotalReturnPct      float64   `db:"total_return_pct"`
	AnnualizedReturnPct float64   `db:"annualized_return_pct"`
	LastUpdated         date.Date `db:"last_updated"`
}
