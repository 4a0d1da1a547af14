package geohash

import (
	"fmt"
	"math"
)

const alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// bitsPerChar is the number of interleaved bits carried by one character.
const bitsPerChar = 5

var decodeTable = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		t[alphabet[i]] = int8(i)
	}
	return t
}()

// Box is the latitude/longitude extent of a single geohash cell.
type Box struct {
	Hash  string
	North float64
	South float64
	East  float64
	West  float64
}

// EncodeBox bisects the coordinate space, longitude first, until the hash
// reaches precision characters. It panics if precision is not positive.
func EncodeBox(lat, lon float64, precision int) (Box, error) {
	mustPrecision(precision)
	if err := validate(lat, lon); err != nil {
		return Box{}, err
	}

	latLo, latHi := -90.0, 90.0
	lonLo, lonHi := -180.0, 180.0

	buf := make([]byte, 0, precision)
	even := true
	ch, bit := 0, 0
	for len(buf) < precision {
		if even {
			mid := (lonLo + lonHi) / 2
			if lon >= mid {
				ch |= 1 << (bitsPerChar - 1 - bit)
				lonLo = mid
			} else {
				lonHi = mid
			}
		} else {
			mid := (latLo + latHi) / 2
			if lat >= mid {
				ch |= 1 << (bitsPerChar - 1 - bit)
				latLo = mid
			} else {
				latHi = mid
			}
		}
		even = !even
		bit++
		if bit == bitsPerChar {
			buf = append(buf, alphabet[ch])
			ch, bit = 0, 0
		}
	}

	return Box{Hash: string(buf), North: latHi, South: latLo, East: lonHi, West: lonLo}, nil
}

// DecodeBox returns the cell named by hash. It reports false for an empty
// string or any character outside the geohash alphabet.
func DecodeBox(hash string) (Box, bool) {
	if hash == "" {
		return Box{}, false
	}

	latLo, latHi := -90.0, 90.0
	lonLo, lonHi := -180.0, 180.0

	even := true
	for i := 0; i < len(hash); i++ {
		v := decodeTable[hash[i]]
		if v < 0 {
			return Box{}, false
		}
		for mask := int8(1 << (bitsPerChar - 1)); mask > 0; mask >>= 1 {
			if even {
				mid := (lonLo + lonHi) / 2
				if v&mask != 0 {
					lonLo = mid
				} else {
					lonHi = mid
				}
			} else {
				mid := (latLo + latHi) / 2
				if v&mask != 0 {
					latLo = mid
				} else {
					latHi = mid
				}
			}
			even = !even
		}
	}

	return Box{Hash: hash, North: latHi, South: latLo, East: lonHi, West: lonLo}, true
}

// Precision is the number of characters in the box's hash.
func (b Box) Precision() int { return len(b.Hash) }

func (b Box) Center() Coordinates {
	return Coordinates{
		Latitude:  (b.North + b.South) / 2,
		Longitude: (b.East + b.West) / 2,
	}
}

func (b Box) Size() Size {
	return Size{
		Latitude:  b.North - b.South,
		Longitude: b.East - b.West,
	}
}

// Contains reports whether c lies inside the box, edges included.
func (b Box) Contains(c Coordinates) bool {
	return c.Latitude >= b.South && c.Latitude <= b.North &&
		c.Longitude >= b.West && c.Longitude <= b.East
}

// ContainsBox reports whether o lies entirely inside b.
func (b Box) ContainsBox(o Box) bool {
	return o.South >= b.South && o.North <= b.North &&
		o.West >= b.West && o.East <= b.East
}

func (b Box) String() string {
	return fmt.Sprintf("%s[N=%g S=%g E=%g W=%g]", b.Hash, b.North, b.South, b.East, b.West)
}

func validate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: lat=%g lon=%g", ErrOutOfRange, lat, lon)
	}
	return nil
}

func mustPrecision(precision int) {
	if precision <= 0 {
		panic(fmt.Sprintf("geohash: precision must be positive, got %d", precision))
	}
}
