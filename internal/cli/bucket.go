package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/mohammed-shakir/geohash-cache/internal/dataset"
	"github.com/mohammed-shakir/geohash-cache/internal/hotness/expdecay"
	"github.com/mohammed-shakir/geohash-cache/internal/metricswrap"
	"github.com/mohammed-shakir/geohash-cache/internal/model"
	"github.com/mohammed-shakir/geohash-cache/pkg/geocache"
	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

func bucketFlags(fs *pflag.FlagSet) {
	fs.String("file", "", "CSV of id,lat,lon rows")
	fs.Int("rehash", 0, "rehash to this precision after loading")
	fs.StringSlice("active", nil, "cells to keep; everything else is discarded")
	fs.Float64("keep-hot", 0, "after loading, drop cells whose insert hotness is below this score")
	fs.Bool("keep-neighbors", false, "with --active or --keep-hot, also keep the neighbours of kept cells")
	fs.String("within", "", "print the points inside x1,y1,x2,y2[,EPSG:4326] instead of buckets")
}

func runBucket(ctx context.Context, e *env, fs *pflag.FlagSet, _ []string) error {
	path, _ := fs.GetString("file")
	if path == "" {
		return usagef("--file is required")
	}
	var rehashTo int
	if fs.Changed("rehash") {
		p, err := precisionFlag(fs, "rehash")
		if err != nil {
			return err
		}
		rehashTo = p
	}
	activeHashes, _ := fs.GetStringSlice("active")
	var active []geohash.Geohash
	for _, h := range activeHashes {
		g, ok := geohash.Parse(h)
		if !ok {
			return usagef("--active: invalid geohash %q", h)
		}
		active = append(active, g)
	}
	var within *model.BBox
	if s, _ := fs.GetString("within"); s != "" {
		bb, err := model.ParseBBox(s)
		if err != nil {
			return usagef("--within: %v", err)
		}
		within = &bb
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	points, err := dataset.Load(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	c := geocache.New[dataset.Point](e.cfg.Precision,
		geocache.WithPolicy(e.cfg.Policy),
		geocache.WithCoveringCacheSize(e.cfg.CoveringCacheSize),
	)
	w := metricswrap.New(c, e.metrics, e.log, metricswrap.Config{
		HotBucketSize: e.cfg.HotBucketSize,
		LogSample:     e.cfg.HotBucketLogSample,
		Hotness:       expdecay.New(e.cfg.HotHalfLife),
	})
	for i, p := range points {
		if i%4096 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := w.Insert(p); err != nil {
			return err
		}
	}
	e.log.Info().Int("points", len(points)).Int("buckets", c.BucketCount()).Str("policy", c.Policy().String()).Msg("loaded")

	var opts []geocache.DiscardOption
	if keep, _ := fs.GetBool("keep-neighbors"); keep {
		opts = append(opts, geocache.KeepNeighbors())
	}

	if fs.Changed("keep-hot") {
		th, _ := fs.GetFloat64("keep-hot")
		d := w.DiscardCold(th, opts...)
		fmt.Fprintf(e.stderr, "dropped %d cold elements in %d cells\n", len(d.ElementChanges), len(d.KeyChanges))
	}

	if rehashTo > 0 {
		if err := w.Rehash(rehashTo); err != nil {
			return err
		}
	}

	if len(active) > 0 {
		c.SetActive(active...)
		d := w.DiscardInactive(opts...)
		fmt.Fprintf(e.stderr, "discarded %d elements in %d cells\n", len(d.ElementChanges), len(d.KeyChanges))
	}

	if within != nil {
		return printWithin(e, w, within.Region())
	}

	fmt.Fprintf(e.stdout, "# precision=%d buckets=%d elements=%d\n", c.Precision(), c.BucketCount(), c.Len())
	for _, b := range c.Buckets() {
		ids := sortedIDs(b.Elements, func(p dataset.Point) string { return p.ID })
		fmt.Fprintf(e.stdout, "%s\t%d\t%s\n", b.Geohash, len(b.Elements), joinOrDash(ids))
	}
	return nil
}

// printWithin answers the query from the cache and checks it against an
// R-tree over the same points.
func printWithin(e *env, w *metricswrap.WithMetrics[dataset.Point], r geohash.Region) error {
	got, cells, err := w.Within(r)
	if err != nil {
		return err
	}
	want := dataset.NewIndex(w.Inner().Elements()).Within(r)
	if len(got) != len(want) {
		return fmt.Errorf("cache returned %d points, r-tree %d", len(got), len(want))
	}
	e.log.Debug().Int("cells", cells.Len()).Int("points", len(got)).Msg("within")

	for _, id := range sortedIDs(got, func(p dataset.Point) string { return p.ID }) {
		fmt.Fprintln(e.stdout, id)
	}
	return nil
}
