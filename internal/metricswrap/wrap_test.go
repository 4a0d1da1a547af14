package metricswrap

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammed-shakir/geohash-cache/internal/hotness/expdecay"
	"github.com/mohammed-shakir/geohash-cache/internal/logger"
	"github.com/mohammed-shakir/geohash-cache/internal/metrics"
	"github.com/mohammed-shakir/geohash-cache/internal/observability"
	"github.com/mohammed-shakir/geohash-cache/pkg/geocache"
	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

type stop struct {
	id       string
	lat, lon float64
}

func (s stop) Coordinates() geohash.Coordinates {
	return geohash.Coordinates{Latitude: s.lat, Longitude: s.lon}
}

func scrape(t *testing.T, p *metrics.Provider) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	return rr.Body.String()
}

func TestWrapper_RecordsOpsAndSize(t *testing.T) {
	p := metrics.Init(metrics.Config{})
	m := observability.NewCacheMetrics(p.Registerer())

	var buf bytes.Buffer
	log := logger.Build(logger.Config{Level: "debug"}, &buf)
	w := New(geocache.New[stop](6), m, log, Config{HotBucketSize: 2, LogSample: 1})

	for _, s := range []stop{
		{"a", 47.61524, -122.32080},
		{"b", 47.61515, -122.31128},
		{"c", 47.61117, -122.32080},
		{"bad", 95, 0},
	} {
		_, _ = w.Insert(s)
	}
	w.Lookup("c23nbs")
	w.Lookup("c23nbz")
	if err := w.Rehash(5); err != nil {
		t.Fatalf("Rehash: %v", err)
	}
	if _, _, err := w.Within(geohash.RegionFromBounds(47.62, 47.61, -122.31, -122.33)); err != nil {
		t.Fatalf("Within: %v", err)
	}

	body := scrape(t, p)
	for _, want := range []string{
		`geocache_ops_total{op="insert",result="ok"} 3`,
		`geocache_ops_total{op="insert",result="error"} 1`,
		`geocache_ops_total{op="lookup",result="hit"} 1`,
		`geocache_ops_total{op="lookup",result="miss"} 1`,
		`geocache_rehash_total{direction="coarsen"} 1`,
		`geocache_buckets 1`,
		`geocache_elements 3`,
		`geohash_covering_cells_count{precision="5"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}

	logs := buf.String()
	if !strings.Contains(logs, `"event":"hot_bucket"`) || !strings.Contains(logs, `"cell":"c23nbs"`) {
		t.Fatalf("expected hot bucket log, got:\n%s", logs)
	}
	if !strings.Contains(logs, `"msg":"rehashed"`) {
		t.Fatalf("expected rehash log, got:\n%s", logs)
	}
}

func TestWrapper_DiscardAndUpsert(t *testing.T) {
	p := metrics.Init(metrics.Config{})
	m := observability.NewCacheMetrics(p.Registerer())
	w := New(geocache.New[stop](6, geocache.WithPolicy(geocache.Replace)), m, logger.Build(logger.Config{Level: "off"}, nil), Config{})

	_, _ = w.Upsert(stop{"a", 47.61524, -122.32080})
	_, _ = w.Upsert(stop{"b", 47.61515, -122.31128})
	_, _ = w.Upsert(stop{"c", 47.61117, -122.32080})

	w.Inner().SetActive(geohash.MustParse("c23nbe"))
	d := w.DiscardInactive()
	if len(d.KeyChanges) != 1 {
		t.Fatalf("diff=%+v", d)
	}

	body := scrape(t, p)
	for _, want := range []string{
		`geocache_ops_total{op="upsert",result="replaced"} 1`,
		`geocache_ops_total{op="upsert",result="ok"} 2`,
		`geocache_discarded_elements_total 1`,
		`geocache_elements 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
}

func TestWrapper_DiscardCold(t *testing.T) {
	p := metrics.Init(metrics.Config{})
	m := observability.NewCacheMetrics(p.Registerer())
	tr := expdecay.New(time.Hour)
	w := New(geocache.New[stop](6), m, logger.Build(logger.Config{Level: "off"}, nil), Config{Hotness: tr})

	_, _ = w.Insert(stop{"a", 47.61524, -122.32080})
	_, _ = w.Insert(stop{"b", 47.61515, -122.31128})
	_, _ = w.Insert(stop{"c", 47.61117, -122.32080})
	w.Lookup("c23nbs")
	w.Lookup("c23nbz")

	if got := tr.Score(geohash.MustParse("c23nbs")); got < 2.9 {
		t.Fatalf("c23nbs score=%g want ~3", got)
	}
	if !strings.Contains(scrape(t, p), `geocache_hot_cells 2`) {
		t.Fatalf("hot cells gauge not updated")
	}

	d := w.DiscardCold(1.5)
	if len(d.KeyChanges) != 1 || d.KeyChanges[0].Value.String() != "c23nbe" {
		t.Fatalf("diff=%+v", d)
	}
	if tr.Size() != 1 || w.Inner().Len() != 2 {
		t.Fatalf("tracker size=%d cache len=%d", tr.Size(), w.Inner().Len())
	}

	if err := w.Rehash(5); err != nil {
		t.Fatalf("Rehash: %v", err)
	}
	if tr.Size() != 0 {
		t.Fatalf("rehash must clear scores, size=%d", tr.Size())
	}
	d = w.DiscardCold(1)
	if w.Inner().Len() != 0 || len(d.ElementChanges) != 2 {
		t.Fatalf("no hot cells left should discard all, diff=%+v", d)
	}

	plain := New(geocache.New[stop](6), nil, logger.Build(logger.Config{Level: "off"}, nil), Config{})
	_, _ = plain.Insert(stop{"a", 47.61524, -122.32080})
	if d := plain.DiscardCold(100); !d.IsEmpty() {
		t.Fatalf("without a hotness model nothing is discarded, got %+v", d)
	}
}

func TestShouldLog(t *testing.T) {
	if shouldLog(0, "c23nb") || !shouldLog(1, "c23nb") {
		t.Fatalf("edge samples wrong")
	}
	// deterministic per key
	if shouldLog(0.5, "c23nb") != shouldLog(0.5, "c23nb") {
		t.Fatalf("sampling must be stable for a key")
	}
	hits := 0
	for _, g := range geohash.MustParse("c2").Children() {
		for _, k := range g.Children() {
			if shouldLog(0.25, k.String()) {
				hits++
			}
		}
	}
	if hits < 128 || hits > 384 {
		t.Fatalf("sample 0.25 over 1024 keys logged %d", hits)
	}
}
