// Package mapper converts between geometric coordinates and geohash cells.
package mapper

import (
	"github.com/mohammed-shakir/geohash-cache/internal/model"
)

type Interface interface {
	CellsForBBox(bb model.BBox, precision int) (model.Cells, error)
	ToParent(cell string, parentPrecision int) (string, error)
	ToChildren(cell string, childPrecision int) (model.Cells, error)
}
