package geocache

import (
	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

type ChangeKind int

const (
	Insertion ChangeKind = iota
	Removal
)

func (k ChangeKind) String() string {
	if k == Removal {
		return "removal"
	}
	return "insertion"
}

type Change[T any] struct {
	Kind  ChangeKind
	Value T
}

// Difference reports what a mutation did to the set of keys and elements.
type Difference[E any] struct {
	KeyChanges     []Change[geohash.Geohash]
	ElementChanges []Change[E]
}

func (d Difference[E]) IsEmpty() bool {
	return len(d.KeyChanges) == 0 && len(d.ElementChanges) == 0
}

// Upsert stores e and reports the changes. Under Replace the displaced element
// is reported as removed. Under Append an element already present is left
// alone and the difference is empty.
func (c *Cache[E]) Upsert(e E) (Difference[E], error) {
	var diff Difference[E]
	key, err := c.KeyFor(e)
	if err != nil {
		return diff, err
	}

	if b, ok := c.buckets[key.String()]; ok && c.policy == Append && b.indexOf(e) >= 0 {
		return diff, nil
	}

	displaced, replaced, created := c.put(key, e)
	if created {
		diff.KeyChanges = append(diff.KeyChanges, Change[geohash.Geohash]{Kind: Insertion, Value: key})
	}
	if replaced {
		diff.ElementChanges = append(diff.ElementChanges, Change[E]{Kind: Removal, Value: displaced})
	}
	diff.ElementChanges = append(diff.ElementChanges, Change[E]{Kind: Insertion, Value: e})
	return diff, nil
}

// SetActive replaces the active set. Active cells are advisory: they only
// affect DiscardInactive. A cell marks every finer cell under it as active;
// cells finer than the cache precision are truncated.
func (c *Cache[E]) SetActive(gs ...geohash.Geohash) {
	c.active = geohash.NewSet()
	c.AddActive(gs...)
}

func (c *Cache[E]) AddActive(gs ...geohash.Geohash) {
	for _, g := range gs {
		if g.IsZero() {
			continue
		}
		if p, ok := g.Parent(min(c.precision, g.Precision())); ok {
			c.active.Add(p)
		}
	}
}

func (c *Cache[E]) ClearActive() { c.active = geohash.NewSet() }

// Active returns the active cells ordered by hash.
func (c *Cache[E]) Active() []geohash.Geohash { return c.active.Sorted() }

// IsActive reports whether g or one of its ancestors is active.
func (c *Cache[E]) IsActive(g geohash.Geohash) bool {
	return coveredBy(c.active, g)
}

func coveredBy(s geohash.Set, g geohash.Geohash) bool {
	for p := g.Precision(); p >= 1; p-- {
		anc, _ := g.Parent(p)
		if s.Contains(anc) {
			return true
		}
	}
	return false
}

type discardOptions struct {
	keepNeighbors bool
}

type DiscardOption func(*discardOptions)

// KeepNeighbors also keeps the cells adjacent to each active cell.
func KeepNeighbors() DiscardOption {
	return func(o *discardOptions) { o.keepNeighbors = true }
}

// DiscardInactive drops every bucket whose cell is not active and reports
// the removed keys and elements. With an empty active set everything goes.
func (c *Cache[E]) DiscardInactive(opts ...DiscardOption) Difference[E] {
	var o discardOptions
	for _, fn := range opts {
		fn(&o)
	}

	keep := c.IsActive
	if o.keepNeighbors {
		halo := c.activeHalo()
		keep = func(g geohash.Geohash) bool {
			return c.IsActive(g) || coveredBy(halo, g)
		}
	}

	var diff Difference[E]
	for _, k := range c.sortedKeys() {
		b := c.buckets[k]
		if keep(b.key) {
			continue
		}
		diff.KeyChanges = append(diff.KeyChanges, Change[geohash.Geohash]{Kind: Removal, Value: b.key})
		for _, e := range b.elems {
			diff.ElementChanges = append(diff.ElementChanges, Change[E]{Kind: Removal, Value: e})
		}
		c.size -= len(b.elems)
		delete(c.buckets, k)
	}
	return diff
}

// activeHalo returns the cells bordering each active cell at that cell's
// own precision.
func (c *Cache[E]) activeHalo() geohash.Set {
	halo := geohash.NewSet()
	for _, g := range c.active {
		for _, d := range geohash.Directions {
			if n, ok := g.Neighbor(d); ok {
				halo.Add(n)
			}
		}
	}
	return halo
}
