package geohash

import "sort"

// Set is a collection of distinct cells keyed by hash.
type Set map[string]Geohash

func NewSet(gs ...Geohash) Set {
	s := make(Set, len(gs))
	for _, g := range gs {
		s.Add(g)
	}
	return s
}

func (s Set) Add(g Geohash) { s[g.String()] = g }

func (s Set) Remove(g Geohash) { delete(s, g.String()) }

func (s Set) Contains(g Geohash) bool {
	_, ok := s[g.String()]
	return ok
}

func (s Set) Len() int { return len(s) }

// Hashes returns the hash strings in ascending order.
func (s Set) Hashes() []string {
	out := make([]string, 0, len(s))
	for h := range s {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Sorted returns the cells ordered by hash.
func (s Set) Sorted() []Geohash {
	hs := s.Hashes()
	out := make([]Geohash, len(hs))
	for i, h := range hs {
		out[i] = s[h]
	}
	return out
}
