package externalApi

import "errors"

var (
	ErrNotFound    = errors.New("symbol not found")
	ErrBadStatus   = errors.New("unexpected response status")
	ErrNoChartData = errors.New("empty chart data")
)
