// Package observability defines the Prometheus metrics recorded around the
// geohash cache and region coverings.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK       = "ok"
	ResultHit      = "hit"
	ResultMiss     = "miss"
	ResultError    = "error"
	ResultReplaced = "replaced"
)

type CacheMetrics struct {
	ops      *prometheus.CounterVec
	rehash   *prometheus.CounterVec
	rehashD  *prometheus.HistogramVec
	buckets  prometheus.Gauge
	elements prometheus.Gauge
	covering *prometheus.HistogramVec
	discards prometheus.Counter
	hotCells prometheus.Gauge
}

// NewCacheMetrics builds the metric set and registers it on r when r is not nil.
func NewCacheMetrics(r prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geocache_ops_total",
				Help: "Cache operations by operation and result.",
			},
			[]string{"op", "result"},
		),
		rehash: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geocache_rehash_total",
				Help: "Precision changes by direction.",
			},
			[]string{"direction"},
		),
		rehashD: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geocache_rehash_seconds",
				Help:    "Time spent re-keying the cache.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
			},
			[]string{"direction"},
		),
		buckets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "geocache_buckets",
				Help: "Occupied cells in the cache.",
			},
		),
		elements: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "geocache_elements",
				Help: "Elements held by the cache.",
			},
		),
		covering: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geohash_covering_cells",
				Help:    "Cells returned by a region covering.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14),
			},
			[]string{"precision"},
		),
		discards: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "geocache_discarded_elements_total",
				Help: "Elements dropped because their cell was inactive.",
			},
		),
		hotCells: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "geocache_hot_cells",
				Help: "Cells tracked by the hotness model.",
			},
		),
	}
	if r != nil {
		r.MustRegister(m.ops, m.rehash, m.rehashD, m.buckets, m.elements, m.covering, m.discards, m.hotCells)
	}
	return m
}

func (m *CacheMetrics) IncOp(op, result string) {
	m.ops.WithLabelValues(op, result).Inc()
}

func (m *CacheMetrics) ObserveRehash(from, to int, seconds float64) {
	dir := rehashDirection(from, to)
	m.rehash.WithLabelValues(dir).Inc()
	m.rehashD.WithLabelValues(dir).Observe(seconds)
}

func (m *CacheMetrics) SetSize(buckets, elements int) {
	m.buckets.Set(float64(buckets))
	m.elements.Set(float64(elements))
}

func (m *CacheMetrics) ObserveCovering(precision, cells int) {
	m.covering.WithLabelValues(strconv.Itoa(precision)).Observe(float64(cells))
}

func (m *CacheMetrics) AddDiscarded(n int) {
	if n > 0 {
		m.discards.Add(float64(n))
	}
}

func (m *CacheMetrics) SetHotCells(n int) {
	m.hotCells.Set(float64(n))
}

func rehashDirection(from, to int) string {
	switch {
	case to < from:
		return "coarsen"
	case to > from:
		return "refine"
	default:
		return "noop"
	}
}
