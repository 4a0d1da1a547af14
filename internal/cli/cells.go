package cli

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/mohammed-shakir/geohash-cache/internal/cellgeojson"
	"github.com/mohammed-shakir/geohash-cache/internal/config"
	ghmapper "github.com/mohammed-shakir/geohash-cache/internal/mapper/geohash"
	"github.com/mohammed-shakir/geohash-cache/internal/measure"
	"github.com/mohammed-shakir/geohash-cache/internal/model"
	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

func encodeFlags(fs *pflag.FlagSet) {
	fs.Float64("lat", 0, "latitude")
	fs.Float64("lon", 0, "longitude")
	fs.Float64("cell-km", 0, "pick the coarsest precision whose cells fit in this many km")
}

func runEncode(_ context.Context, e *env, fs *pflag.FlagSet, args []string) error {
	var lat, lon float64
	switch {
	case len(args) == 1:
		a, b, err := model.ParsePair(args[0])
		if err != nil {
			return usagef("%v", err)
		}
		lat, lon = a, b
	case len(args) == 0 && fs.Changed("lat") && fs.Changed("lon"):
		lat, _ = fs.GetFloat64("lat")
		lon, _ = fs.GetFloat64("lon")
	default:
		return usagef("need --lat and --lon, or a single lat,lon argument")
	}

	p := e.cfg.Precision
	if fs.Changed("cell-km") {
		km, _ := fs.GetFloat64("cell-km")
		if km <= 0 {
			return usagef("--cell-km must be positive")
		}
		p = measure.PrecisionFor(lat, km, config.MaxPrecision)
	}

	g, err := geohash.New(lat, lon, p)
	if err != nil {
		return err
	}
	e.log.Debug().Str("cell", g.String()).Float64("lat", lat).Float64("lon", lon).Msg("encoded")
	fmt.Fprintln(e.stdout, g.String())
	return nil
}

func runDecode(_ context.Context, e *env, _ *pflag.FlagSet, args []string) error {
	if len(args) == 0 {
		return usagef("need at least one geohash")
	}
	for _, h := range args {
		g, ok := geohash.Parse(h)
		if !ok {
			return fmt.Errorf("invalid geohash %q", h)
		}
		b := g.Box()
		c := g.Center()
		s := g.Size()
		d := measure.CellDimensions(g)
		fmt.Fprintf(e.stdout, "%s\tcenter=%.6f,%.6f\tbounds=%.6f,%.6f,%.6f,%.6f\tsize=%.6fx%.6f\tkm=%.3fx%.3f\n",
			g, c.Latitude, c.Longitude,
			b.West, b.South, b.East, b.North,
			s.Latitude, s.Longitude,
			d.WidthKm, d.HeightKm)
	}
	return nil
}

func runNeighbors(_ context.Context, e *env, _ *pflag.FlagSet, args []string) error {
	if len(args) != 1 {
		return usagef("need exactly one geohash")
	}
	g, ok := geohash.Parse(args[0])
	if !ok {
		return fmt.Errorf("invalid geohash %q", args[0])
	}
	for _, d := range geohash.Directions {
		n, ok := g.Neighbor(d)
		v := "-"
		if ok {
			v = n.String()
		}
		fmt.Fprintf(e.stdout, "%s\t%s\n", d, v)
	}
	return nil
}

func coverFlags(fs *pflag.FlagSet) {
	fs.String("bbox", "", "x1,y1,x2,y2[,EPSG:4326] (lon/lat)")
	fs.String("center", "", "lat,lon of the region centre")
	fs.String("delta", "", "latitude,longitude half-spans of the region")
	fs.String("format", "text", "text|geojson")
}

func runCover(_ context.Context, e *env, fs *pflag.FlagSet, _ []string) error {
	bboxStr, _ := fs.GetString("bbox")
	center, _ := fs.GetString("center")
	delta, _ := fs.GetString("delta")
	format, _ := fs.GetString("format")
	if format != "text" && format != "geojson" {
		return usagef("unknown --format %q", format)
	}
	p := e.cfg.Precision

	var cells []geohash.Geohash
	switch {
	case bboxStr != "" && center == "":
		bb, err := model.ParseBBox(bboxStr)
		if err != nil {
			return usagef("--bbox: %v", err)
		}
		if p > ghmapper.MaxPrecision {
			return usagef("--precision must be at most %d for bbox covering", ghmapper.MaxPrecision)
		}
		hashes, err := ghmapper.New().CellsForBBox(bb, p)
		if err != nil {
			return err
		}
		for _, h := range hashes {
			cells = append(cells, geohash.MustParse(h))
		}
	case center != "" && bboxStr == "":
		lat, lon, err := model.ParsePair(center)
		if err != nil {
			return usagef("--center: %v", err)
		}
		var dlat, dlon float64
		if delta != "" {
			if dlat, dlon, err = model.ParsePair(delta); err != nil {
				return usagef("--delta: %v", err)
			}
		}
		if dlat < 0 || dlon < 0 {
			return usagef("--delta must not be negative")
		}
		set, err := geohash.Covering(geohash.Region{
			Center:         geohash.Coordinates{Latitude: lat, Longitude: lon},
			LatitudeDelta:  dlat,
			LongitudeDelta: dlon,
		}, p)
		if err != nil {
			return err
		}
		cells = set.Sorted()
	default:
		return usagef("need exactly one of --bbox or --center")
	}

	e.metrics.ObserveCovering(p, len(cells))
	e.log.Debug().Int("cells", len(cells)).Msg("covered region")

	if format == "geojson" {
		b, err := cellgeojson.Marshal(cells)
		if err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, string(b))
		return nil
	}
	for _, g := range cells {
		fmt.Fprintln(e.stdout, g.String())
	}
	return nil
}
