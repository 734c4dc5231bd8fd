package hexmap

import "math"

// ─── Axial Coordinates ──────────────────────────────────────────────────────
// The battlefield uses axial coordinates (q, r) with the implied third cube
// coordinate s = -q-r. All distance and line math happens in cube space.

type Hex struct {
	Q, R int
}

// S returns the implied third cube coordinate.
func (h Hex) S() int {
	return -h.Q - h.R
}

// Distance returns the hex distance between a and b.
func Distance(a, b Hex) int {
	return (abs(a.Q-b.Q) + abs(a.Q+a.R-b.Q-b.R) + abs(a.R-b.R)) / 2
}

// Direction vectors for the 6 hexsides, clockwise from north-east.
var directions = [6]Hex{
	{1, 0}, {1, -1}, {0, -1}, {-1, 0}, {-1, 1}, {0, 1},
}

// Neighbors returns the 6 adjacent hex coordinates.
func Neighbors(h Hex) [6]Hex {
	var out [6]Hex
	for i, d := range directions {
		out[i] = Hex{h.Q + d.Q, h.R + d.R}
	}
	return out
}

// Neighbor returns the adjacent hex in direction dir (0-5).
func Neighbor(h Hex, dir int) Hex {
	d := directions[((dir%6)+6)%6]
	return Hex{h.Q + d.Q, h.R + d.R}
}

// Round converts fractional axial coordinates to the nearest valid hex.
// The axis with the largest rounding error is discarded and recomputed
// from the other two so q+r+s stays zero.
func Round(q, r float64) Hex {
	s := -q - r
	rq := math.Round(q)
	rr := math.Round(r)
	rs := math.Round(s)

	dq := math.Abs(rq - q)
	dr := math.Abs(rr - r)
	ds := math.Abs(rs - s)

	if dq > dr && dq > ds {
		rq = -rr - rs
	} else if dr > ds {
		rr = -rq - rs
	}
	return Hex{int(rq), int(rr)}
}

// Line returns the hexes along a line from a to b, exclusive of both
// endpoints. Uses cube coordinate interpolation.
func Line(a, b Hex) []Hex {
	dist := Distance(a, b)
	if dist <= 1 {
		return nil
	}
	var result []Hex
	for i := 1; i < dist; i++ {
		t := float64(i) / float64(dist)
		q := lerp(float64(a.Q), float64(b.Q), t)
		r := lerp(float64(a.R), float64(b.R), t)
		result = append(result, Round(q, r))
	}
	return result
}

// ─── Pixel Adapters ─────────────────────────────────────────────────────────
// Presentation-layer conversions for pointy-top axial layout. The engine
// never calls these; they exist for callers that draw the board.

// ToPixel converts a hex to its center point for a given hex size.
func ToPixel(h Hex, size float64) (x, y float64) {
	x = size * (math.Sqrt(3)*float64(h.Q) + math.Sqrt(3)/2*float64(h.R))
	y = size * 1.5 * float64(h.R)
	return x, y
}

// FromPixel converts a point back to the containing hex.
func FromPixel(x, y, size float64) Hex {
	q := (math.Sqrt(3)/3*x - y/3) / size
	r := (2.0 / 3 * y) / size
	return Round(q, r)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
