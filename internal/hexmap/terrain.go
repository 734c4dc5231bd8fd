package hexmap

// ─── Terrain ────────────────────────────────────────────────────────────────

type TerrainType int

const (
	TerrainClear TerrainType = iota
	TerrainWoods
	TerrainRough
	TerrainWater
)

func (t TerrainType) String() string {
	switch t {
	case TerrainWoods:
		return "woods"
	case TerrainRough:
		return "rough"
	case TerrainWater:
		return "water"
	default:
		return "clear"
	}
}

// Cell is one battlefield hex. Cells are created at map generation and
// never mutated during combat.
type Cell struct {
	Coord     Hex
	Terrain   TerrainType
	Elevation int
}

// ─── Map ────────────────────────────────────────────────────────────────────

// Map is a generated battlefield covering every hex within Radius of the
// origin. Read-only input to movement, attack, and AI scoring.
type Map struct {
	radius int
	cells  map[Hex]Cell
}

// RandSource is the subset of a random generator that map generation needs.
// The session's seeded roller satisfies it, so a seed fully determines the
// battlefield.
type RandSource interface {
	IntN(n int) int
}

// Terrain distribution per cell, rolled on d100:
// 10% woods, 5% rough, 3% water, remainder clear. Elevation 0-2.
const (
	woodsChance = 10
	roughChance = 5
	waterChance = 3
	maxElev     = 2
)

// Generate builds a map of the given hex radius. Radius below zero is
// treated as zero (a single-hex board).
func Generate(radius int, rng RandSource) *Map {
	if radius < 0 {
		radius = 0
	}
	m := &Map{
		radius: radius,
		cells:  make(map[Hex]Cell, cellCount(radius)),
	}
	for q := -radius; q <= radius; q++ {
		r1 := max(-radius, -q-radius)
		r2 := min(radius, -q+radius)
		for r := r1; r <= r2; r++ {
			coord := Hex{q, r}
			m.cells[coord] = Cell{
				Coord:     coord,
				Terrain:   rollTerrain(rng),
				Elevation: rng.IntN(maxElev + 1),
			}
		}
	}
	return m
}

func rollTerrain(rng RandSource) TerrainType {
	roll := rng.IntN(100)
	switch {
	case roll < woodsChance:
		return TerrainWoods
	case roll < woodsChance+roughChance:
		return TerrainRough
	case roll < woodsChance+roughChance+waterChance:
		return TerrainWater
	default:
		return TerrainClear
	}
}

// Radius returns the map's generation radius.
func (m *Map) Radius() int {
	return m.radius
}

// Contains reports whether h lies on the map.
func (m *Map) Contains(h Hex) bool {
	return Distance(Hex{}, h) <= m.radius
}

// Cell returns the cell at h and whether it exists.
func (m *Map) Cell(h Hex) (Cell, bool) {
	c, ok := m.cells[h]
	return c, ok
}

// Cells returns every cell on the map. Order is not defined.
func (m *Map) Cells() []Cell {
	out := make([]Cell, 0, len(m.cells))
	for _, c := range m.cells {
		out = append(out, c)
	}
	return out
}

// cellCount returns the number of hexes within radius r of the origin.
func cellCount(r int) int {
	return 1 + 3*r*(r+1)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
