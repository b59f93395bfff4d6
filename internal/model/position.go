package model

// PositionSpec is one configured pick: a participant putting a share of their capital into a ticker.
type PositionSpec struct {
	Name     string  `yaml:"name"`
	Ticker   string  `yaml:"ticker"`
	Exchange string  `yaml:"exchange"`
	Weight   float64 `yaml:"weight"`
}

// Position is a persisted pick. Shares, PriceAtStart, TargetAllocation and
// Allocation stay nil until the allocation step has priced the position.
type Position struct {
	Name             string
	Ticker           string
	Exchange         string
	Weight           float64
	FormattedTicker  string
	Shares           *float64
	PriceAtStart     *float64
	TargetAllocation *float64
	Allocation       *float64
}

// IsAllocated reports whether the position holds a share count.
func (p Position) IsAllocated() bool {
	return p.Shares != nil
}

// Allocation is the outcome of converting one position's weight into shares.
type Allocation struct {
	Name             string
	Ticker           string
	FormattedTicker  string
	NormalizedWeight float64
	TargetAllocation float64
	Shares           float64
	PriceAtStart     float64
	Allocation       float64
	Skipped          bool
}
