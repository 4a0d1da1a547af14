// Package dataset loads point files for the CLI and indexes them in an R-tree.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

// Point is one labelled coordinate.
type Point struct {
	ID  string
	Lat float64
	Lon float64
}

func (p Point) Coordinates() geohash.Coordinates {
	return geohash.Coordinates{Latitude: p.Lat, Longitude: p.Lon}
}

// Load reads "id,lat,lon" rows. A first row whose coordinates do not parse
// is treated as a header. Blank lines and lines starting with # are skipped.
func Load(r io.Reader) ([]Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var out []Point
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(rec) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 fields (id,lat,lon), got %d", line, len(rec))
		}
		p, err := parseRow(rec)
		if err != nil {
			if line == 1 && len(out) == 0 {
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func parseRow(rec []string) (Point, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("lon: %w", err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Point{}, fmt.Errorf("%w: %v,%v", geohash.ErrOutOfRange, lat, lon)
	}
	return Point{ID: strings.TrimSpace(rec[0]), Lat: lat, Lon: lon}, nil
}
