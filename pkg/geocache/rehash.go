package geocache

import (
	"fmt"

	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

// Rehash re-keys the cache at precision. Coarsening truncates existing keys
// and merges their buckets under the cache policy; refining re-encodes every
// element from its coordinates. The active set follows the new keys.
//
// Equal precision is a no-op. It panics if precision is not positive. On
// error the cache is unchanged.
func (c *Cache[E]) Rehash(precision int) error {
	if precision <= 0 {
		panic(fmt.Sprintf("geocache: precision must be positive, got %d", precision))
	}

	var (
		next map[string]*bucket[E]
		size int
		err  error
	)
	switch {
	case precision == c.precision:
		return nil
	case precision < c.precision:
		next, size, err = c.coarsen(precision)
	default:
		next, size, err = c.refine(precision)
	}
	if err != nil {
		return err
	}

	c.active = c.remapActive(precision)
	c.buckets = next
	c.size = size
	c.precision = precision
	return nil
}

func (c *Cache[E]) coarsen(precision int) (map[string]*bucket[E], int, error) {
	next := make(map[string]*bucket[E], len(c.buckets))
	size := 0
	for _, k := range c.sortedKeys() {
		truncated := k[:precision]
		key, ok := geohash.Parse(truncated)
		if !ok {
			return nil, 0, fmt.Errorf("%w: %q truncated to undecodable %q", ErrRehashFailed, k, truncated)
		}
		nb, exists := next[truncated]
		if !exists {
			nb = &bucket[E]{key: key}
			next[truncated] = nb
		}
		for _, e := range c.buckets[k].elems {
			if _, replaced := nb.add(e, c.policy); !replaced {
				size++
			}
		}
	}
	return next, size, nil
}

func (c *Cache[E]) refine(precision int) (map[string]*bucket[E], int, error) {
	next := make(map[string]*bucket[E], len(c.buckets))
	size := 0
	for _, k := range c.sortedKeys() {
		for _, e := range c.buckets[k].elems {
			key, err := geohash.NewFromCoordinates(e.Coordinates(), precision)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: re-encode element of %q: %w", ErrRehashFailed, k, err)
			}
			nb, exists := next[key.String()]
			if !exists {
				nb = &bucket[E]{key: key}
				next[key.String()] = nb
			}
			if _, replaced := nb.add(e, c.policy); !replaced {
				size++
			}
		}
	}
	return next, size, nil
}

// remapActive carries the active set across a precision change. Active cells
// match by prefix, so only cells finer than the new precision need truncating.
func (c *Cache[E]) remapActive(precision int) geohash.Set {
	out := geohash.NewSet()
	for _, g := range c.active {
		if p, ok := g.Parent(min(precision, g.Precision())); ok {
			out.Add(p)
		}
	}
	return out
}
