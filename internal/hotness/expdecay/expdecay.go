// Package expdecay implements an exponential decay model for cell hotness.
package expdecay

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/geohash-cache/internal/hotness"
	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

const numShards = 64

type Tracker struct {
	HalfLife time.Duration

	now func() time.Time

	shards [numShards]shard
}

type shard struct {
	mu sync.RWMutex
	m  map[string]*counter
}

type counter struct {
	cell  geohash.Geohash
	score float64
	last  time.Time
}

var _ hotness.Interface = (*Tracker)(nil)

func New(halfLife time.Duration) *Tracker {
	if halfLife <= 0 {
		halfLife = time.Minute
	}
	t := &Tracker{HalfLife: halfLife, now: time.Now}
	for i := range t.shards {
		t.shards[i].m = make(map[string]*counter)
	}
	return t
}

func (t *Tracker) Inc(cell geohash.Geohash) {
	if cell.IsZero() {
		return
	}
	key := cell.String()
	s := t.pick(key)
	n := t.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.m[key]
	if c == nil {
		s.m[key] = &counter{cell: cell, score: 1, last: n}
		return
	}
	// decay the old score to now, then count this touch
	c.score = decay(c.score, n.Sub(c.last).Seconds(), t.HalfLife.Seconds()) + 1.0
	c.last = n
}

func (t *Tracker) Score(cell geohash.Geohash) float64 {
	if cell.IsZero() {
		return 0
	}
	key := cell.String()
	s := t.pick(key)
	n := t.now()

	s.mu.RLock()
	c := s.m[key]
	if c == nil {
		s.mu.RUnlock()
		return 0
	}
	score, last := c.score, c.last
	s.mu.RUnlock()

	return decay(score, n.Sub(last).Seconds(), t.HalfLife.Seconds())
}

func (t *Tracker) Reset(cells ...geohash.Geohash) {
	for _, cell := range cells {
		if cell.IsZero() {
			continue
		}
		key := cell.String()
		s := t.pick(key)
		s.mu.Lock()
		delete(s.m, key)
		s.mu.Unlock()
	}
}

// Clear forgets every cell.
func (t *Tracker) Clear() {
	for i := range t.shards {
		t.shards[i].mu.Lock()
		t.shards[i].m = make(map[string]*counter)
		t.shards[i].mu.Unlock()
	}
}

func (t *Tracker) Above(threshold float64) []geohash.Geohash {
	n := t.now()
	hl := t.HalfLife.Seconds()
	var out []geohash.Geohash
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		for _, c := range s.m {
			if decay(c.score, n.Sub(c.last).Seconds(), hl) >= threshold {
				out = append(out, c.cell)
			}
		}
		s.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func decay(score, dt, halfLife float64) float64 {
	if score == 0 || dt <= 0 || halfLife <= 0 {
		return score
	}
	lambda := math.Ln2 / halfLife
	// e^(-λt)
	return score * math.Exp(-lambda*dt)
}

func (t *Tracker) pick(key string) *shard {
	h := xxhash.Sum64String(key)
	return &t.shards[h&(numShards-1)]
}

func (t *Tracker) Size() int {
	total := 0
	for i := range t.shards {
		t.shards[i].mu.RLock()
		total += len(t.shards[i].m)
		t.shards[i].mu.RUnlock()
	}
	return total
}
