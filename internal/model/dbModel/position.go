package dbModel

import "database/sql"

type Position struct {
	Name             string          `db:"name"`
	Ticker           string          `db:"ticker"`
	Exchange         string          `db:"exchange"`
	Weight           float64         `db:"weight"`
	FormattedTicker  string          `db:"formatted_ticker"`
	Shares           sql.NullFloat64 `db:"shares"`
	PriceAtStart     sql.NullFloat64 `db:"price_at_start"`
	TargetAllocation sql.NullFloat64 `db:"target_allocation"`
	Allocation       sql.NullFloat64 `db:"allocation"`
}
