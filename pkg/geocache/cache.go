// Package geocache groups elements by the geohash cell of their coordinates.
//
// A Cache is keyed at a single precision that can be changed after the fact
// with Rehash. It is not safe for concurrent use; callers serialise access.
package geocache

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

// Geohashable is implemented by anything that can be placed on the grid.
type Geohashable interface {
	comparable
	Coordinates() geohash.Coordinates
}

// ErrRehashFailed is returned when a rehash cannot derive a key. The cache is
// left unchanged.
var ErrRehashFailed = errors.New("geocache: rehash failed")

const defaultCoveringCacheSize = 256

// Index addresses one element inside a bucket.
type Index struct {
	Geohash geohash.Geohash
	Offset  int
}

type options struct {
	policy       Policy
	coveringSize int
}

type Option func(*options)

func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithCoveringCacheSize bounds the number of region coverings Within keeps
// for reuse. Zero or less disables the memo.
func WithCoveringCacheSize(n int) Option {
	return func(o *options) { o.coveringSize = n }
}

type Cache[E Geohashable] struct {
	precision int
	policy    Policy
	buckets   map[string]*bucket[E]
	size      int
	active    geohash.Set
	coverings *lru.Cache[coverKey, geohash.Set]
}

// New returns an empty cache keyed at precision. It panics if precision is not
// positive.
func New[E Geohashable](precision int, opts ...Option) *Cache[E] {
	if precision <= 0 {
		panic(fmt.Sprintf("geocache: precision must be positive, got %d", precision))
	}
	o := options{policy: Append, coveringSize: defaultCoveringCacheSize}
	for _, fn := range opts {
		fn(&o)
	}
	c := &Cache[E]{
		precision: precision,
		policy:    o.policy,
		buckets:   make(map[string]*bucket[E]),
		active:    geohash.NewSet(),
	}
	if o.coveringSize > 0 {
		c.coverings, _ = lru.New[coverKey, geohash.Set](o.coveringSize)
	}
	return c
}

func (c *Cache[E]) Precision() int { return c.precision }

func (c *Cache[E]) Policy() Policy { return c.policy }

// Len is the number of elements held.
func (c *Cache[E]) Len() int { return c.size }

// BucketCount is the number of occupied cells.
func (c *Cache[E]) BucketCount() int { return len(c.buckets) }

// Geohashes returns the occupied cells ordered by hash.
func (c *Cache[E]) Geohashes() []geohash.Geohash {
	keys := c.sortedKeys()
	out := make([]geohash.Geohash, len(keys))
	for i, k := range keys {
		out[i] = c.buckets[k].key
	}
	return out
}

// Elements flattens the cache, bucket by bucket in hash order.
func (c *Cache[E]) Elements() []E {
	out := make([]E, 0, c.size)
	for _, k := range c.sortedKeys() {
		out = append(out, c.buckets[k].elems...)
	}
	return out
}

// Buckets returns a copy of every bucket ordered by hash.
func (c *Cache[E]) Buckets() []Bucket[E] {
	keys := c.sortedKeys()
	out := make([]Bucket[E], len(keys))
	for i, k := range keys {
		b := c.buckets[k]
		out[i] = Bucket[E]{Geohash: b.key, Elements: slices.Clone(b.elems)}
	}
	return out
}

// KeyFor returns the cell e belongs to at the current precision.
func (c *Cache[E]) KeyFor(e E) (geohash.Geohash, error) {
	return geohash.NewFromCoordinates(e.Coordinates(), c.precision)
}

// Insert adds e to the bucket of its cell and returns that cell.
func (c *Cache[E]) Insert(e E) (geohash.Geohash, error) {
	key, err := c.KeyFor(e)
	if err != nil {
		return geohash.Geohash{}, fmt.Errorf("insert: %w", err)
	}
	c.put(key, e)
	return key, nil
}

func (c *Cache[E]) put(key geohash.Geohash, e E) (displaced E, replaced, created bool) {
	b, ok := c.buckets[key.String()]
	if !ok {
		b = &bucket[E]{key: key}
		c.buckets[key.String()] = b
		created = true
	}
	displaced, replaced = b.add(e, c.policy)
	if !replaced {
		c.size++
	}
	return displaced, replaced, created
}

// Get returns a copy of the elements stored under g.
func (c *Cache[E]) Get(g geohash.Geohash) ([]E, bool) {
	b, ok := c.buckets[g.String()]
	if !ok {
		return nil, false
	}
	return slices.Clone(b.elems), true
}

// Lookup is Get keyed by a hash string. Malformed strings are not found.
func (c *Cache[E]) Lookup(hash string) ([]E, bool) {
	g, ok := geohash.Parse(hash)
	if !ok {
		return nil, false
	}
	return c.Get(g)
}

func (c *Cache[E]) Contains(g geohash.Geohash) bool {
	_, ok := c.buckets[g.String()]
	return ok
}

// IndexOf locates e in the bucket derived from its own coordinates.
func (c *Cache[E]) IndexOf(e E) (Index, bool) {
	key, err := c.KeyFor(e)
	if err != nil {
		return Index{}, false
	}
	b, ok := c.buckets[key.String()]
	if !ok {
		return Index{}, false
	}
	i := b.indexOf(e)
	if i < 0 {
		return Index{}, false
	}
	return Index{Geohash: key, Offset: i}, true
}

func (c *Cache[E]) At(i Index) (E, bool) {
	var zero E
	b, ok := c.buckets[i.Geohash.String()]
	if !ok || i.Offset < 0 || i.Offset >= len(b.elems) {
		return zero, false
	}
	return b.elems[i.Offset], true
}

// Remove deletes the first element equal to e and returns it.
func (c *Cache[E]) Remove(e E) (E, bool) {
	i, ok := c.IndexOf(e)
	if !ok {
		var zero E
		return zero, false
	}
	return c.RemoveAt(i)
}

// RemoveAt deletes the element at i. A bucket left empty is dropped.
func (c *Cache[E]) RemoveAt(i Index) (E, bool) {
	var zero E
	b, ok := c.buckets[i.Geohash.String()]
	if !ok || i.Offset < 0 || i.Offset >= len(b.elems) {
		return zero, false
	}
	e := b.removeAt(i.Offset)
	c.size--
	if len(b.elems) == 0 {
		delete(c.buckets, i.Geohash.String())
	}
	return e, true
}

func (c *Cache[E]) sortedKeys() []string {
	keys := make([]string, 0, len(c.buckets))
	for k := range c.buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
