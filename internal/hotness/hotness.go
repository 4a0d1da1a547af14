// Package hotness scores how often geohash cells are touched.
package hotness

import "github.com/mohammed-shakir/geohash-cache/pkg/geohash"

type Interface interface {
	Inc(cell geohash.Geohash)
	Score(cell geohash.Geohash) float64
	Reset(cells ...geohash.Geohash)
	Clear()
	// Above returns the cells scoring at least threshold, sorted by hash.
	Above(threshold float64) []geohash.Geohash
}
