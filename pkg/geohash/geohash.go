// Package geohash encodes coordinates into base-32 geohash cells and walks
// the cell grid (neighbours, parents, children and rectangular coverings).
package geohash

import (
	"errors"
	"fmt"
)

// DefaultPrecision is the precision used when callers do not pick one.
const DefaultPrecision = 5

// ErrOutOfRange is returned for coordinates outside [-90,90] x [-180,180] or NaN.
var ErrOutOfRange = errors.New("geohash: coordinates out of range")

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// Size is a cell extent in degrees.
type Size struct {
	Latitude  float64
	Longitude float64
}

// Geohash is a cell identified by its hash string. Two values are equal when
// their hashes are equal; the bounds are derived from the hash.
type Geohash struct {
	box Box
}

// New encodes (lat, lon) at precision. It panics if precision is not positive.
func New(lat, lon float64, precision int) (Geohash, error) {
	b, err := EncodeBox(lat, lon, precision)
	if err != nil {
		return Geohash{}, err
	}
	return Geohash{box: b}, nil
}

func NewFromCoordinates(c Coordinates, precision int) (Geohash, error) {
	return New(c.Latitude, c.Longitude, precision)
}

// MustNew is like New but panics on error.
func MustNew(lat, lon float64, precision int) Geohash {
	g, err := New(lat, lon, precision)
	if err != nil {
		panic(err)
	}
	return g
}

// Parse decodes hash. Malformed input reports false.
func Parse(hash string) (Geohash, bool) {
	b, ok := DecodeBox(hash)
	if !ok {
		return Geohash{}, false
	}
	return Geohash{box: b}, true
}

// MustParse is like Parse but panics on malformed input.
func MustParse(hash string) Geohash {
	g, ok := Parse(hash)
	if !ok {
		panic(fmt.Sprintf("geohash: invalid hash %q", hash))
	}
	return g
}

func (g Geohash) String() string { return g.box.Hash }

func (g Geohash) Precision() int { return len(g.box.Hash) }

func (g Geohash) IsZero() bool { return g.box.Hash == "" }

func (g Geohash) Equal(o Geohash) bool { return g.box.Hash == o.box.Hash }

func (g Geohash) Box() Box { return g.box }

func (g Geohash) Center() Coordinates { return g.box.Center() }

func (g Geohash) Latitude() float64 { return g.box.Center().Latitude }

func (g Geohash) Longitude() float64 { return g.box.Center().Longitude }

func (g Geohash) Size() Size { return g.box.Size() }

func (g Geohash) Contains(c Coordinates) bool { return g.box.Contains(c) }

// Parent truncates g to precision characters. It reports false when precision
// is not in [1, g.Precision()].
func (g Geohash) Parent(precision int) (Geohash, bool) {
	if precision < 1 || precision > g.Precision() {
		return Geohash{}, false
	}
	if precision == g.Precision() {
		return g, true
	}
	return Parse(g.box.Hash[:precision])
}

// Children returns the 32 cells one character finer than g, in alphabet order.
func (g Geohash) Children() []Geohash {
	if g.IsZero() {
		return nil
	}
	out := make([]Geohash, 0, len(alphabet))
	for i := 0; i < len(alphabet); i++ {
		c, _ := Parse(g.box.Hash + alphabet[i:i+1])
		out = append(out, c)
	}
	return out
}

// HasPrefix reports whether o is g or one of its ancestors.
func (g Geohash) HasPrefix(o Geohash) bool {
	return len(o.box.Hash) <= len(g.box.Hash) && g.box.Hash[:len(o.box.Hash)] == o.box.Hash
}

// Valid reports whether hash is a non-empty geohash string.
func Valid(hash string) bool {
	if hash == "" {
		return false
	}
	for i := 0; i < len(hash); i++ {
		if decodeTable[hash[i]] < 0 {
			return false
		}
	}
	return true
}
