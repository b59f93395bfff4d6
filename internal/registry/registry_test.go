package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r, err := Load("")
	require.NoError(t, err)

	assert.Len(t, r.Positions(), 29)
	assert.Equal(t,
		[]string{"Abhi", "Alessandro", "Apoorva", "Conor", "Diarbhail", "Ivan", "Radu", "Silvia"},
		r.Participants(),
	)

	for name, total := range r.WeightTotals() {
		assert.InDelta(t, 1.0, total, 1e-9, name)
	}

	tickers := r.LookupTickers()
	assert.Contains(t, tickers, "0700.HK")
	assert.Contains(t, tickers, "RR.L")
	assert.Contains(t, tickers, "SCAN.V")
	assert.Contains(t, tickers, "DBK.DE")
	assert.Contains(t, tickers, "NVDA")
}

func TestSharedTickerAcrossParticipants(t *testing.T) {
	r, err := Load("")
	require.NoError(t, err)

	var holders []string
	for _, p := range r.Positions() {
		if p.FormattedTicker == "0700.HK" {
			holders = append(holders, p.Name)
		}
	}
	assert.ElementsMatch(t, []string{"Apoorva", "Abhi"}, holders)
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name  string
		specs []model.PositionSpec
		want  error
	}{
		{"empty", nil, ErrNoPositions},
		{"no name", []model.PositionSpec{{Ticker: "A", Exchange: "NYSE", Weight: 1}}, ErrEmptyName},
		{"no ticker", []model.PositionSpec{{Name: "a", Exchange: "NYSE", Weight: 1}}, ErrEmptyTicker},
		{"zero weight", []model.PositionSpec{{Name: "a", Ticker: "A", Exchange: "NYSE"}}, ErrNonPositiveWeight},
		{"duplicate", []model.PositionSpec{
			{Name: "a", Ticker: "A", Exchange: "NYSE", Weight: 1},
			{Name: "a", Ticker: "A", Exchange: "NASDAQ", Weight: 1},
		}, ErrDuplicatePosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.specs)
			assert.True(t, errors.Is(err, tt.want), err)
		})
	}
}

func TestNewUnknownExchangeFallsBack(t *testing.T) {
	r, err := New([]model.PositionSpec{{Name: "a", Ticker: "PETR4", Exchange: "B3", Weight: 1}})
	require.NoError(t, err)
	assert.Equal(t, "PETR4", r.Positions()[0].FormattedTicker)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.yaml")
	content := `positions:
  - name: alice
    ticker: "0700"
    exchange: HKG
    weight: 0.5
  - name: alice
    ticker: CTC
    exchange: TSE
    weight: 1.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	r, err := Load(path)
	require.NoError(t, err)

	positions := r.Positions()
	require.Len(t, positions, 2)
	assert.Equal(t, "0700.HK", positions[0].FormattedTicker)
	assert.Equal(t, "CTC-A.TO", positions[1].FormattedTicker)
	assert.InDelta(t, 2.0, r.WeightTotals()["alice"], 1e-12)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
