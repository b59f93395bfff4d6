package registry

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/KotFed0t/stockpicking_tracker/internal/calculator"
	"github.com/KotFed0t/stockpicking_tracker/internal/exchange"
	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"gopkg.in/yaml.v3"
)

type positionsFile struct {
	Positions []model.PositionSpec `yaml:"positions"`
}

// Registry holds the validated competition positions with their lookup tickers.
type Registry struct {
	positions []model.Position
	groups    calculator.Groups
}

// Load reads positions from a YAML file. An empty path selects DefaultPositions.
func Load(path string) (*Registry, error) {
	if path == "" {
		return New(DefaultPositions())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read positions file: %w", err)
	}

	var f positionsFile
	if err = yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse positions file %s: %w", path, err)
	}

	return New(f.Positions)
}

func New(specs []model.PositionSpec) (*Registry, error) {
	if len(specs) == 0 {
		return nil, ErrNoPositions
	}

	type key struct{ name, ticker string }
	seen := make(map[key]struct{}, len(specs))
	positions := make([]model.Position, 0, len(specs))

	for i, s := range specs {
		switch {
		case s.Name == "":
			return nil, fmt.Errorf("position #%d: %w", i, ErrEmptyName)
		case s.Ticker == "":
			return nil, fmt.Errorf("position #%d (%s): %w", i, s.Name, ErrEmptyTicker)
		case s.Weight <= 0:
			return nil, fmt.Errorf("position %s/%s weight %v: %w", s.Name, s.Ticker, s.Weight, ErrNonPositiveWeight)
		}

		k := key{s.Name, s.Ticker}
		if _, ok := seen[k]; ok {
			return nil, fmt.Errorf("position %s/%s: %w", s.Name, s.Ticker, ErrDuplicatePosition)
		}
		seen[k] = struct{}{}

		if !exchange.IsKnown(s.Exchange) {
			slog.Warn(
				"unknown exchange, ticker used as is",
				slog.String("name", s.Name),
				slog.String("ticker", s.Ticker),
				slog.String("exchange", s.Exchange),
			)
		}

		positions = append(positions, model.Position{
			Name:            s.Name,
			Ticker:          s.Ticker,
			Exchange:        s.Exchange,
			Weight:          s.Weight,
			FormattedTicker: exchange.FormatTicker(s.Ticker, s.Exchange),
		})
	}

	return &Registry{positions: positions, groups: calculator.GroupPositions(positions)}, nil
}

// Positions returns a copy of the registered positions in configuration order.
func (r *Registry) Positions() []model.Position {
	res := make([]model.Position, len(r.positions))
	copy(res, r.positions)
	return res
}

func (r *Registry) Participants() []string {
	return r.groups.Names()
}

func (r *Registry) WeightTotals() map[string]float64 {
	return r.groups.WeightTotals()
}

// LookupTickers returns the distinct formatted tickers, sorted.
func (r *Registry) LookupTickers() []string {
	seen := make(map[string]struct{})
	for _, p := range r.positions {
		seen[p.FormattedTicker] = struct{}{}
	}
	res := make([]string, 0, len(seen))
	for t := range seen {
		res = append(res, t)
	}
	sort.Strings(res)
	return res
}
