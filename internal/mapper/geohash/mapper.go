package ghmapper

import (
	"fmt"

	"github.com/mohammed-shakir/geohash-cache/internal/mapper"
	"github.com/mohammed-shakir/geohash-cache/internal/model"
	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

// MaxPrecision caps the precision the mapper will walk at.
const MaxPrecision = 12

type Mapper struct{}

var _ mapper.Interface = (*Mapper)(nil)

func New() *Mapper { return &Mapper{} }

// CellsForBBox returns the sorted cells intersecting bb.
func (m *Mapper) CellsForBBox(bb model.BBox, precision int) (model.Cells, error) {
	if err := validatePrecision(precision); err != nil {
		return nil, err
	}
	if bb.X2 <= bb.X1 || bb.Y2 <= bb.Y1 {
		return nil, fmt.Errorf("degenerate bbox %s", bb)
	}
	set, err := geohash.Covering(bb.Region(), precision)
	if err != nil {
		return nil, fmt.Errorf("geohash covering: %w", err)
	}
	return model.Cells(set.Hashes()), nil
}

func validatePrecision(p int) error {
	if p < 1 || p > MaxPrecision {
		return fmt.Errorf("invalid geohash precision %d (must be 1..%d)", p, MaxPrecision)
	}
	return nil
}
