// Package metricswrap wraps a geohash cache with Prometheus metrics and
// structured logs.
package metricswrap

import (
	"fmt"
	"time"

	xx "github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/geohash-cache/internal/hotness"
	"github.com/mohammed-shakir/geohash-cache/internal/observability"
	"github.com/mohammed-shakir/geohash-cache/pkg/geocache"
	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

type Config struct {
	// HotBucketSize logs a bucket once an insert grows it to this many
	// elements. Zero disables the log.
	HotBucketSize int
	// LogSample is the fraction of hot-bucket events that are logged.
	LogSample float64
	// Hotness, when set, is touched by inserts and lookup hits and backs
	// DiscardCold.
	Hotness hotness.Interface
}

type sizer interface{ Size() int }

type WithMetrics[E geocache.Geohashable] struct {
	inner *geocache.Cache[E]
	m     *observability.CacheMetrics
	log   zerolog.Logger
	cfg   Config
}

func New[E geocache.Geohashable](inner *geocache.Cache[E], m *observability.CacheMetrics, log zerolog.Logger, cfg Config) *WithMetrics[E] {
	if m == nil {
		m = observability.NewCacheMetrics(nil)
	}
	w := &WithMetrics[E]{inner: inner, m: m, log: log, cfg: cfg}
	w.syncSize()
	return w
}

// Inner exposes the wrapped cache for read-only inspection.
func (w *WithMetrics[E]) Inner() *geocache.Cache[E] { return w.inner }

func (w *WithMetrics[E]) Insert(e E) (geohash.Geohash, error) {
	key, err := w.inner.Insert(e)
	if err != nil {
		w.m.IncOp("insert", observability.ResultError)
		return key, err
	}
	w.m.IncOp("insert", observability.ResultOK)
	w.syncSize()
	w.touch(key)

	if w.cfg.HotBucketSize > 0 {
		if es, ok := w.inner.Get(key); ok && len(es) == w.cfg.HotBucketSize && shouldLog(w.cfg.LogSample, key.String()) {
			w.log.Info().
				Str("event", "hot_bucket").
				Str("cell", key.String()).
				Str("cell_hash", fmt.Sprintf("%08x", xx.Sum64String(key.String()))).
				Int("size", len(es)).
				Msg("bucket reached hot size")
		}
	}
	return key, nil
}

func (w *WithMetrics[E]) Upsert(e E) (geocache.Difference[E], error) {
	d, err := w.inner.Upsert(e)
	switch {
	case err != nil:
		w.m.IncOp("upsert", observability.ResultError)
	case len(d.ElementChanges) > 1:
		w.m.IncOp("upsert", observability.ResultReplaced)
	default:
		w.m.IncOp("upsert", observability.ResultOK)
	}
	w.syncSize()
	return d, err
}

func (w *WithMetrics[E]) Lookup(hash string) ([]E, bool) {
	es, ok := w.inner.Lookup(hash)
	w.m.IncOp("lookup", hitOrMiss(ok))
	if ok {
		if g, valid := geohash.Parse(hash); valid {
			w.touch(g)
		}
	}
	return es, ok
}

func (w *WithMetrics[E]) Get(g geohash.Geohash) ([]E, bool) {
	es, ok := w.inner.Get(g)
	w.m.IncOp("get", hitOrMiss(ok))
	if ok {
		w.touch(g)
	}
	return es, ok
}

func (w *WithMetrics[E]) Remove(e E) (E, bool) {
	out, ok := w.inner.Remove(e)
	w.m.IncOp("remove", hitOrMiss(ok))
	w.syncSize()
	return out, ok
}

// Within answers a region query and records the size of the covering.
func (w *WithMetrics[E]) Within(r geohash.Region) ([]E, geohash.Set, error) {
	es, cells, err := w.inner.Within(r)
	if err != nil {
		w.m.IncOp("within", observability.ResultError)
		return nil, nil, err
	}
	w.m.IncOp("within", observability.ResultOK)
	w.m.ObserveCovering(w.inner.Precision(), cells.Len())
	return es, cells, nil
}

func (w *WithMetrics[E]) Rehash(precision int) error {
	from := w.inner.Precision()
	start := time.Now()
	err := w.inner.Rehash(precision)
	elapsed := time.Since(start)
	if err != nil {
		w.m.IncOp("rehash", observability.ResultError)
		w.log.Error().Err(err).Int("from", from).Int("to", precision).Msg("rehash failed")
		return err
	}
	w.m.IncOp("rehash", observability.ResultOK)
	w.m.ObserveRehash(from, precision, elapsed.Seconds())
	w.syncSize()
	// scores are keyed at the old precision
	if w.cfg.Hotness != nil && from != precision {
		w.cfg.Hotness.Clear()
		w.syncHot()
	}
	w.log.Debug().
		Int("from", from).
		Int("to", precision).
		Int("buckets", w.inner.BucketCount()).
		Int("elements", w.inner.Len()).
		Dur("took", elapsed).
		Msg("rehashed")
	return nil
}

func (w *WithMetrics[E]) DiscardInactive(opts ...geocache.DiscardOption) geocache.Difference[E] {
	d := w.inner.DiscardInactive(opts...)
	w.m.IncOp("discard", observability.ResultOK)
	w.m.AddDiscarded(len(d.ElementChanges))
	w.syncSize()
	if len(d.KeyChanges) > 0 {
		w.log.Debug().Int("cells", len(d.KeyChanges)).Int("elements", len(d.ElementChanges)).Msg("discarded inactive cells")
	}
	return d
}

// DiscardCold keeps only the cells whose hotness score reaches threshold (and
// their neighbours with KeepNeighbors) and drops the rest. Without a hotness
// model nothing is discarded.
func (w *WithMetrics[E]) DiscardCold(threshold float64, opts ...geocache.DiscardOption) geocache.Difference[E] {
	if w.cfg.Hotness == nil {
		return geocache.Difference[E]{}
	}
	hot := w.cfg.Hotness.Above(threshold)
	if len(hot) == 0 {
		w.inner.ClearActive()
	} else {
		w.inner.SetActive(hot...)
	}
	d := w.DiscardInactive(opts...)

	var gone []geohash.Geohash
	for _, ch := range d.KeyChanges {
		if ch.Kind == geocache.Removal {
			gone = append(gone, ch.Value)
		}
	}
	w.cfg.Hotness.Reset(gone...)
	w.syncHot()
	return d
}

func (w *WithMetrics[E]) touch(g geohash.Geohash) {
	if w.cfg.Hotness == nil {
		return
	}
	w.cfg.Hotness.Inc(g)
	w.syncHot()
}

func (w *WithMetrics[E]) syncHot() {
	if s, ok := w.cfg.Hotness.(sizer); ok {
		w.m.SetHotCells(s.Size())
	}
}

func (w *WithMetrics[E]) syncSize() {
	w.m.SetSize(w.inner.BucketCount(), w.inner.Len())
}

func hitOrMiss(ok bool) string {
	if ok {
		return observability.ResultHit
	}
	return observability.ResultMiss
}

func shouldLog(sample float64, key string) bool {
	if sample <= 0 {
		return false
	}
	if sample >= 1 {
		return true
	}
	const denom = 10000 // 0.01 => 100/10000
	threshold := uint64(sample*denom + 0.5)
	if threshold == 0 {
		return false
	}
	h := xx.Sum64String(key)
	return (h % denom) < threshold
}
