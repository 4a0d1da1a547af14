// Package model defines the boundary types shared by the CLI and mappers.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

const SRIDWGS84 = "EPSG:4326"

// BBox is a lon/lat rectangle: X is longitude, Y is latitude.
type BBox struct {
	X1, Y1 float64
	X2, Y2 float64
	SRID   string
}

// String representation matching wfs/wms bbox format
func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f,%s", b.X1, b.Y1, b.X2, b.Y2, b.SRID)
}

func (b BBox) Region() geohash.Region {
	return geohash.RegionFromBounds(b.Y2, b.Y1, b.X2, b.X1)
}

// Cells is a list of geohash strings.
type Cells []string

// ParseBBox parses "x1,y1,x2,y2[,EPSG:4326]".
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 && len(parts) != 5 {
		return BBox{}, errors.New("expected 4 or 5 comma-separated values: x1,y1,x2,y2[,EPSG:4326]")
	}
	var vals [4]float64
	for i, name := range []string{"x1", "y1", "x2", "y2"} {
		f, err := parseFloat(parts[i])
		if err != nil {
			return BBox{}, fmt.Errorf("%s: %w", name, err)
		}
		vals[i] = f
	}
	xMin, yMin, xMax, yMax := vals[0], vals[1], vals[2], vals[3]

	srid := SRIDWGS84
	if len(parts) == 5 {
		srid = strings.ToUpper(strings.TrimSpace(parts[4]))
		if srid != SRIDWGS84 {
			return BBox{}, fmt.Errorf("only %s is supported (got %q)", SRIDWGS84, srid)
		}
	}

	if !(xMin >= -180 && xMin <= 180 && xMax >= -180 && xMax <= 180) {
		return BBox{}, errors.New("longitude must be in [-180,180]")
	}
	if !(yMin >= -90 && yMin <= 90 && yMax >= -90 && yMax <= 90) {
		return BBox{}, errors.New("latitude must be in [-90,90]")
	}
	if xMax <= xMin || yMax <= yMin {
		return BBox{}, errors.New("coordinates must satisfy x2>x1 and y2>y1")
	}
	return BBox{X1: xMin, Y1: yMin, X2: xMax, Y2: yMax, SRID: srid}, nil
}

// ParsePair parses "a,b" into two floats.
func ParsePair(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected two comma-separated values, got %q", s)
	}
	a, err := parseFloat(parts[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := parseFloat(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func parseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", v)
	}
	return f, nil
}
