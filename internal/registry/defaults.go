package registry

import "github.com/KotFed0t/stockpicking_tracker/internal/model"

// DefaultPositions returns the picks of the 2025 competition.
func DefaultPositions() []model.PositionSpec {
	return []model.PositionSpec{
		{Name: "Apoorva", Ticker: "TSM", Exchange: "NYSE", Weight: 0.4},
		{Name: "Apoorva", Ticker: "GOOGL", Exchange: "NASDAQ", Weight: 0.1},
		{Name: "Apoorva", Ticker: "TAK", Exchange: "NYSE", Weight: 0.25},
		{Name: "Apoorva", Ticker: "0700", Exchange: "HKG", Weight: 0.25},

		{Name: "Alessandro", Ticker: "DUOL", Exchange: "NASDAQ", Weight: 0.4},
		{Name: "Alessandro", Ticker: "GOOG", Exchange: "NASDAQ", Weight: 0.25},
		{Name: "Alessandro", Ticker: "ZG", Exchange: "NASDAQ", Weight: 0.35},

		{Name: "Ivan", Ticker: "VST", Exchange: "NYSE", Weight: 0.4},
		{Name: "Ivan", Ticker: "EXPE", Exchange: "NASDAQ", Weight: 0.3},
		{Name: "Ivan", Ticker: "DGX", Exchange: "NYSE", Weight: 0.3},

		{Name: "Abhi", Ticker: "ASR", Exchange: "NYSE", Weight: 0.25},
		{Name: "Abhi", Ticker: "0700", Exchange: "HKG", Weight: 0.25},
		{Name: "Abhi", Ticker: "SMCI", Exchange: "NASDAQ", Weight: 0.25},
		{Name: "Abhi", Ticker: "BRO", Exchange: "NASDAQ", Weight: 0.25},

		{Name: "Conor", Ticker: "PFE", Exchange: "NYSE", Weight: 0.2},
		{Name: "Conor", Ticker: "RR", Exchange: "LON", Weight: 0.2},
		{Name: "Conor", Ticker: "MCD", Exchange: "NYSE", Weight: 0.2},
		{Name: "Conor", Ticker: "SHEL", Exchange: "LON", Weight: 0.2},
		{Name: "Conor", Ticker: "ALV", Exchange: "XETRA", Weight: 0.2},

		{Name: "Diarbhail", Ticker: "FLUT", Exchange: "NYSE", Weight: 0.34},
		{Name: "Diarbhail", Ticker: "NVDA", Exchange: "NASDAQ", Weight: 0.33},
		{Name: "Diarbhail", Ticker: "SCAN", Exchange: "CVE", Weight: 0.33},

		{Name: "Radu", Ticker: "MP", Exchange: "NYSE", Weight: 0.1},
		{Name: "Radu", Ticker: "DBK", Exchange: "XETRA", Weight: 0.5},
		{Name: "Radu", Ticker: "RTX", Exchange: "NYSE", Weight: 0.2},
		{Name: "Radu", Ticker: "RHM", Exchange: "XETRA", Weight: 0.2},

		{Name: "Silvia", Ticker: "NVO", Exchange: "NYSE", Weight: 0.33},
		{Name: "Silvia", Ticker: "NVDA", Exchange: "NASDAQ", Weight: 0.33},
		{Name: "Silvia", Ticker: "OPRA", Exchange: "NASDAQ", Weight: 0.34},
	}
}
