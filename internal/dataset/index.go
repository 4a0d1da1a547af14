package dataset

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

const pointTolerance = 1e-9

type indexed struct {
	Point
	seq int
}

func (p *indexed) Bounds() rtreego.Rect {
	return rtreego.Point{p.Lon, p.Lat}.ToRect(pointTolerance)
}

// Index is an R-tree over points, used to answer region queries without the
// geohash grid.
type Index struct {
	tree *rtreego.Rtree
	n    int
}

func NewIndex(points []Point) *Index {
	idx := &Index{tree: rtreego.NewTree(2, 25, 50)}
	for _, p := range points {
		idx.tree.Insert(&indexed{Point: p, seq: idx.n})
		idx.n++
	}
	return idx
}

func (x *Index) Len() int { return x.n }

// Within returns the points inside r, edges included, in load order.
func (x *Index) Within(r geohash.Region) []Point {
	b := r.Bounds()
	rect, err := rtreego.NewRect(
		rtreego.Point{b.West, b.South},
		[]float64{math.Max(b.East-b.West, pointTolerance), math.Max(b.North-b.South, pointTolerance)},
	)
	if err != nil {
		return nil
	}

	var hits []*indexed
	for _, s := range x.tree.SearchIntersect(rect) {
		p := s.(*indexed)
		if r.Contains(p.Coordinates()) {
			hits = append(hits, p)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })

	out := make([]Point, len(hits))
	for i, h := range hits {
		out[i] = h.Point
	}
	return out
}
