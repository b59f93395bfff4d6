package calculator

import (
	"sort"

	"github.com/KotFed0t/stockpicking_tracker/internal/model"
	"gonum.org/v1/gonum/floats"
)

// Group is one participant's positions with their weight total.
type Group struct {
	Name        string
	Positions   []model.Position
	WeightTotal float64
}

// Groups is keyed by participant name.
type Groups map[string]Group

// GroupPositions groups positions by participant, keeping input order within a group.
func GroupPositions(positions []model.Position) Groups {
	byName := make(map[string][]model.Position)
	for _, p := range positions {
		byName[p.Name] = append(byName[p.Name], p)
	}

	groups := make(Groups, len(byName))
	for name, ps := range byName {
		weights := make([]float64, 0, len(ps))
		for _, p := range ps {
			weights = append(weights, p.Weight)
		}
		groups[name] = Group{Name: name, Positions: ps, WeightTotal: floats.Sum(weights)}
	}
	return groups
}

// Names returns participant names sorted.
func (g Groups) Names() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WeightTotals returns the weight total per participant.
func (g Groups) WeightTotals() map[string]float64 {
	res := make(map[string]float64, len(g))
	for name, group := range g {
		res[name] = group.WeightTotal
	}
	return res
}
