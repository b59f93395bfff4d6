package model

import (
	"github.com/KotFed0t/stockpicking_tracker/internal/date"
)

type PortfolioValue struct {
	Date      date.Date
	Name      string
	Value     float64
	PctChange float64
}

type PerformanceMetric struct {
	Name                string
	InitialValue        float64
	FinalValue          float64
	TotalReturnPct      float64
	AnnualizedReturnPct float64
	LastUpdated         date.Date
}

// Report is everything the export step reads back from the store.
type Report struct {
	AnchorDate date.Date
	Metrics    []PerformanceMetric
	Positions  []Position
	Values     []PortfolioValue
}
