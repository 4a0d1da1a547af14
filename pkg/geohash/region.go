package geohash

import (
	"fmt"
	"math"
)

// Region is an axis-aligned rectangle given by its centre and half-spans in
// degrees.
type Region struct {
	Center         Coordinates
	LatitudeDelta  float64
	LongitudeDelta float64
}

// RegionFromBounds builds the region spanning the given edges.
func RegionFromBounds(north, south, east, west float64) Region {
	return Region{
		Center: Coordinates{
			Latitude:  (north + south) / 2,
			Longitude: (east + west) / 2,
		},
		LatitudeDelta:  (north - south) / 2,
		LongitudeDelta: (east - west) / 2,
	}
}

// Bounds returns the region's edges. The Hash field is empty.
func (r Region) Bounds() Box {
	return Box{
		North: r.Center.Latitude + r.LatitudeDelta,
		South: r.Center.Latitude - r.LatitudeDelta,
		East:  r.Center.Longitude + r.LongitudeDelta,
		West:  r.Center.Longitude - r.LongitudeDelta,
	}
}

// Intersects reports whether b holds any point of the region. Cells own their
// south and west edges, so a box whose south or west edge lies on the region's
// north or east edge still intersects, while one that only touches the
// region's south or west edge does not.
func (r Region) Intersects(b Box) bool {
	rb := r.Bounds()
	return b.South <= rb.North && b.North > rb.South &&
		b.West <= rb.East && b.East > rb.West
}

// Contains reports whether c lies inside the region, edges included.
func (r Region) Contains(c Coordinates) bool {
	return r.Bounds().Contains(c)
}

// IntersectFunc decides whether a cell belongs to a covering.
type IntersectFunc func(Box) bool

// Covering returns the cells at precision that intersect r. The cell holding
// the region's centre is always included.
func Covering(r Region, precision int) (Set, error) {
	return CoveringFunc(r.Center, precision, r.Intersects)
}

// CoveringFunc walks the grid outwards from the cell holding center and
// collects every cell accepted by intersects. The accepted cells must form a
// rectangle in grid space for the walk to find all of them.
func CoveringFunc(center Coordinates, precision int, intersects IntersectFunc) (Set, error) {
	mustPrecision(precision)
	origin, err := NewFromCoordinates(center, precision)
	if err != nil {
		return nil, fmt.Errorf("covering origin: %w", err)
	}

	out := NewSet(origin)
	cols, rows := gridDims(precision)

	step := func(g Geohash, d Direction) (Geohash, bool) {
		n, ok := g.Neighbor(d)
		if !ok || !intersects(n.Box()) {
			return Geohash{}, false
		}
		return n, true
	}

	corner := origin
	for i := 0; i < rows; i++ {
		n, ok := step(corner, North)
		if !ok {
			break
		}
		corner = n
	}
	for i := 0; i < cols; i++ {
		w, ok := step(corner, West)
		if !ok {
			break
		}
		corner = w
	}

	row := corner
	for r := 0; r < rows; r++ {
		if intersects(row.Box()) {
			out.Add(row)
		}
		cur := row
		for c := 1; c < cols; c++ {
			e, ok := step(cur, East)
			if !ok {
				break
			}
			out.Add(e)
			cur = e
		}
		s, ok := step(row, South)
		if !ok {
			break
		}
		row = s
	}
	return out, nil
}

// gridDims returns the number of columns and rows of the grid at precision,
// saturating at math.MaxInt.
func gridDims(precision int) (cols, rows int) {
	bits := precision * bitsPerChar
	return pow2(bits - bits/2), pow2(bits / 2)
}

func pow2(n int) int {
	if n >= 62 {
		return math.MaxInt
	}
	return 1 << n
}
