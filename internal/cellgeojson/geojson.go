// Package cellgeojson renders geohash cells as GeoJSON polygons.
package cellgeojson

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

// Bound converts a cell box into an orb bound (X is longitude).
func Bound(b geohash.Box) orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}

// Feature returns the cell as a Polygon feature carrying its hash and
// precision. Extra properties are copied in.
func Feature(g geohash.Geohash, extra map[string]any) *geojson.Feature {
	f := geojson.NewFeature(Bound(g.Box()).ToPolygon())
	f.ID = g.String()
	f.Properties["geohash"] = g.String()
	f.Properties["precision"] = g.Precision()
	for k, v := range extra {
		f.Properties[k] = v
	}
	return f
}

// FeatureCollection renders cells in the given order.
func FeatureCollection(cells []geohash.Geohash) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, g := range cells {
		fc.Append(Feature(g, nil))
	}
	return fc
}

// Marshal renders cells as a GeoJSON FeatureCollection document.
func Marshal(cells []geohash.Geohash) ([]byte, error) {
	b, err := FeatureCollection(cells).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal geojson: %w", err)
	}
	return b, nil
}
