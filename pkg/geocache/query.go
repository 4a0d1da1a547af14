package geocache

import (
	"maps"

	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

type coverKey struct {
	region    geohash.Region
	precision int
}

// Within returns the elements whose coordinates lie inside r together with
// the cells that were scanned. Elements are ordered by cell, then insertion.
func (c *Cache[E]) Within(r geohash.Region) ([]E, geohash.Set, error) {
	cells, err := c.covering(r)
	if err != nil {
		return nil, nil, err
	}
	var out []E
	for _, g := range cells.Sorted() {
		b, ok := c.buckets[g.String()]
		if !ok {
			continue
		}
		for _, e := range b.elems {
			if r.Contains(e.Coordinates()) {
				out = append(out, e)
			}
		}
	}
	return out, cells, nil
}

// covering returns a set the caller owns. Memoised sets are keyed by
// precision, so entries from before a rehash are never served.
func (c *Cache[E]) covering(r geohash.Region) (geohash.Set, error) {
	key := coverKey{region: r, precision: c.precision}
	if c.coverings != nil {
		if s, ok := c.coverings.Get(key); ok {
			return maps.Clone(s), nil
		}
	}
	s, err := geohash.Covering(r, c.precision)
	if err != nil {
		return nil, err
	}
	if c.coverings != nil {
		c.coverings.Add(key, maps.Clone(s))
	}
	return s, nil
}

// CachedCoverings is the number of region coverings currently memoised.
func (c *Cache[E]) CachedCoverings() int {
	if c.coverings == nil {
		return 0
	}
	return c.coverings.Len()
}
