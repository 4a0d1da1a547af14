package geocache

import (
	"fmt"
	"strings"

	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

// Policy decides what happens when an element lands in an occupied bucket.
type Policy int

const (
	// Append keeps every element of a cell in insertion order.
	Append Policy = iota
	// Replace keeps only the most recent element of a cell.
	Replace
)

func (p Policy) String() string {
	switch p {
	case Append:
		return "append"
	case Replace:
		return "replace"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy accepts "append" or "replace", case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "append", "list":
		return Append, nil
	case "replace", "single":
		return Replace, nil
	}
	return Append, fmt.Errorf("unknown cache policy %q (want append|replace)", s)
}

type bucket[E Geohashable] struct {
	key   geohash.Geohash
	elems []E
}

// add stores e under the policy and returns the element it displaced, if any.
func (b *bucket[E]) add(e E, p Policy) (E, bool) {
	var zero E
	if p == Replace && len(b.elems) > 0 {
		old := b.elems[0]
		b.elems = append(b.elems[:0], e)
		return old, true
	}
	b.elems = append(b.elems, e)
	return zero, false
}

func (b *bucket[E]) indexOf(e E) int {
	for i, c := range b.elems {
		if c == e {
			return i
		}
	}
	return -1
}

func (b *bucket[E]) removeAt(i int) E {
	e := b.elems[i]
	b.elems = append(b.elems[:i], b.elems[i+1:]...)
	return e
}

// Bucket is a snapshot of one cell and its elements.
type Bucket[E Geohashable] struct {
	Geohash  geohash.Geohash
	Elements []E
}
