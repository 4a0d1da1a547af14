package model

import (
	"strings"
	"testing"
)

func TestParseBBox(t *testing.T) {
	bb, err := ParseBBox("-122.33,47.61,-122.31,47.62,epsg:4326")
	if err != nil {
		t.Fatalf("ParseBBox: %v", err)
	}
	if bb.X1 != -122.33 || bb.Y2 != 47.62 || bb.SRID != SRIDWGS84 {
		t.Fatalf("unexpected bbox %+v", bb)
	}
	if got := bb.String(); got != "-122.330000,47.610000,-122.310000,47.620000,EPSG:4326" {
		t.Fatalf("String()=%s", got)
	}

	r := bb.Region()
	b := r.Bounds()
	if d := b.North - 47.62; d > 1e-12 || d < -1e-12 {
		t.Fatalf("region north=%v", b.North)
	}

	if _, err := ParseBBox(" 1, 2, 3, 4 "); err != nil {
		t.Fatalf("4-value form should parse: %v", err)
	}
}

func TestParseBBox_Errors(t *testing.T) {
	cases := map[string]string{
		"1,2,3":             "expected 4 or 5",
		"a,2,3,4":           "x1",
		"1,2,3,4,EPSG:3857": "only EPSG:4326",
		"-181,0,1,1":        "longitude",
		"0,-91,1,1":         "latitude",
		"1,1,0,2":           "x2>x1",
		"0,2,1,1":           "x2>x1",
	}
	for in, want := range cases {
		_, err := ParseBBox(in)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("ParseBBox(%q) err=%v want containing %q", in, err, want)
		}
	}
}

func TestParsePair(t *testing.T) {
	a, b, err := ParsePair("47.6, -122.3")
	if err != nil || a != 47.6 || b != -122.3 {
		t.Fatalf("ParsePair=%v,%v,%v", a, b, err)
	}
	if _, _, err := ParsePair("1"); err == nil {
		t.Fatalf("expected error for single value")
	}
	if _, _, err := ParsePair("1,x"); err == nil {
		t.Fatalf("expected error for bad number")
	}
}
