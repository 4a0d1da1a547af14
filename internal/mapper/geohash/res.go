package ghmapper

import (
	"fmt"

	"github.com/mohammed-shakir/geohash-cache/internal/model"
	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

func (m *Mapper) ToParent(cell string, parentPrecision int) (string, error) {
	if err := validatePrecision(parentPrecision); err != nil {
		return "", err
	}
	g, ok := geohash.Parse(cell)
	if !ok {
		return "", fmt.Errorf("invalid geohash %q", cell)
	}
	if parentPrecision > g.Precision() {
		return "", fmt.Errorf("parentPrecision %d must be <= cell precision %d", parentPrecision, g.Precision())
	}
	p, _ := g.Parent(parentPrecision)
	return p.String(), nil
}

// ToChildren expands cell to every descendant at childPrecision, sorted.
func (m *Mapper) ToChildren(cell string, childPrecision int) (model.Cells, error) {
	if err := validatePrecision(childPrecision); err != nil {
		return nil, err
	}
	g, ok := geohash.Parse(cell)
	if !ok {
		return nil, fmt.Errorf("invalid geohash %q", cell)
	}
	if childPrecision < g.Precision() {
		return nil, fmt.Errorf("childPrecision %d must be >= cell precision %d", childPrecision, g.Precision())
	}
	// 32^depth cells; refuse expansions that would not fit in memory
	if childPrecision-g.Precision() > 4 {
		return nil, fmt.Errorf("expanding %q to precision %d yields too many cells", cell, childPrecision)
	}

	level := []geohash.Geohash{g}
	for p := g.Precision(); p < childPrecision; p++ {
		next := make([]geohash.Geohash, 0, len(level)*32)
		for _, c := range level {
			next = append(next, c.Children()...)
		}
		level = next
	}

	out := make(model.Cells, len(level))
	for i, c := range level {
		out[i] = c.String()
	}
	return out, nil
}
