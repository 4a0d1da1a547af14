// Package measure converts geohash cell extents into ground distances.
package measure

import (
	"github.com/umahmood/haversine"

	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

type Dimensions struct {
	WidthKm  float64
	HeightKm float64
}

// CellDimensions measures g along the parallel and meridian through its
// centre. Width shrinks towards the poles; height does not.
func CellDimensions(g geohash.Geohash) Dimensions {
	b := g.Box()
	c := b.Center()
	_, w := haversine.Distance(
		haversine.Coord{Lat: c.Latitude, Lon: b.West},
		haversine.Coord{Lat: c.Latitude, Lon: b.East},
	)
	_, h := haversine.Distance(
		haversine.Coord{Lat: b.South, Lon: c.Longitude},
		haversine.Coord{Lat: b.North, Lon: c.Longitude},
	)
	return Dimensions{WidthKm: w, HeightKm: h}
}

// DistanceKm is the great-circle distance between two points.
func DistanceKm(a, b geohash.Coordinates) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: a.Latitude, Lon: a.Longitude},
		haversine.Coord{Lat: b.Latitude, Lon: b.Longitude},
	)
	return km
}

// PrecisionFor returns the coarsest precision whose cells at lat are no larger
// than km in either direction, capped at maxPrecision.
func PrecisionFor(lat, km float64, maxPrecision int) int {
	for p := 1; p < maxPrecision; p++ {
		g, err := geohash.New(lat, 0, p)
		if err != nil {
			return maxPrecision
		}
		d := CellDimensions(g)
		if d.WidthKm <= km && d.HeightKm <= km {
			return p
		}
	}
	return maxPrecision
}
