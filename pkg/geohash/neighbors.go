package geohash

type Direction int

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

var directionNames = [...]string{"north", "northeast", "east", "southeast", "south", "southwest", "west", "northwest"}

func (d Direction) String() string {
	if d < North || d > NorthWest {
		return "unknown"
	}
	return directionNames[d]
}

// Directions lists every direction clockwise from North.
var Directions = []Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

// Neighbor re-encodes the centre of g shifted by one cell size in direction d.
// Diagonals step north or south first, then east or west. It reports false
// when the shifted point leaves the coordinate domain.
func (g Geohash) Neighbor(d Direction) (Geohash, bool) {
	switch d {
	case North:
		return g.shift(1, 0)
	case South:
		return g.shift(-1, 0)
	case East:
		return g.shift(0, 1)
	case West:
		return g.shift(0, -1)
	case NorthEast:
		return g.diagonal(North, East)
	case NorthWest:
		return g.diagonal(North, West)
	case SouthEast:
		return g.diagonal(South, East)
	case SouthWest:
		return g.diagonal(South, West)
	}
	return Geohash{}, false
}

func (g Geohash) diagonal(vertical, horizontal Direction) (Geohash, bool) {
	v, ok := g.Neighbor(vertical)
	if !ok {
		return Geohash{}, false
	}
	return v.Neighbor(horizontal)
}

func (g Geohash) shift(dLat, dLon float64) (Geohash, bool) {
	if g.IsZero() {
		return Geohash{}, false
	}
	c := g.Center()
	s := g.Size()
	n, err := New(c.Latitude+dLat*s.Latitude, c.Longitude+dLon*s.Longitude, g.Precision())
	if err != nil {
		return Geohash{}, false
	}
	return n, true
}

// Neighbors holds the eight cells around Origin.
type Neighbors struct {
	Origin    Geohash
	North     Geohash
	NorthEast Geohash
	East      Geohash
	SouthEast Geohash
	South     Geohash
	SouthWest Geohash
	West      Geohash
	NorthWest Geohash
}

// Neighbors computes all eight neighbours. The result is all or nothing: if
// any cardinal or diagonal neighbour is missing it reports false.
func (g Geohash) Neighbors() (Neighbors, bool) {
	n, okN := g.Neighbor(North)
	s, okS := g.Neighbor(South)
	e, okE := g.Neighbor(East)
	w, okW := g.Neighbor(West)
	if !okN || !okS || !okE || !okW {
		return Neighbors{}, false
	}

	ne, okNE := n.Neighbor(East)
	nw, okNW := n.Neighbor(West)
	se, okSE := s.Neighbor(East)
	sw, okSW := s.Neighbor(West)
	if !okNE || !okNW || !okSE || !okSW {
		return Neighbors{}, false
	}

	return Neighbors{
		Origin:    g,
		North:     n,
		NorthEast: ne,
		East:      e,
		SouthEast: se,
		South:     s,
		SouthWest: sw,
		West:      w,
		NorthWest: nw,
	}, true
}

// All returns the neighbours clockwise from North.
func (n Neighbors) All() []Geohash {
	return []Geohash{n.North, n.NorthEast, n.East, n.SouthEast, n.South, n.SouthWest, n.West, n.NorthWest}
}

func (n Neighbors) Get(d Direction) Geohash {
	switch d {
	case North:
		return n.North
	case NorthEast:
		return n.NorthEast
	case East:
		return n.East
	case SouthEast:
		return n.SouthEast
	case South:
		return n.South
	case SouthWest:
		return n.SouthWest
	case West:
		return n.West
	case NorthWest:
		return n.NorthWest
	}
	return Geohash{}
}

// Hashes returns the neighbour strings in All order.
func (n Neighbors) Hashes() []string {
	all := n.All()
	out := make([]string, len(all))
	for i, g := range all {
		out[i] = g.String()
	}
	return out
}
