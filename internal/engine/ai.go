package engine

import (
	"fmt"

	"github.com/dgrieve/ironlance/internal/hexmap"
)

// ─── AI Controller ──────────────────────────────────────────────────────────
// One full turn per non-player unit: pick a hex, pick a target, fire, end
// turn. Scoring is plain additive heuristics over reachable hexes and
// living enemies; ties go to the first candidate found, which is stable
// because reachable hexes and the roster have fixed iteration order.

// Preferred engagement band in hexes.
const (
	aiBandMin = 6
	aiBandMax = 12
)

// scorePosition rates a candidate hex for u: reward the preferred firing
// band, cover terrain, and high ground; penalize being out of reach.
func (s *Session) scorePosition(u *Unit, h hexmap.Hex) int {
	score := 0
	if d, ok := s.nearestEnemyDistance(u, h); ok {
		switch {
		case d >= aiBandMin && d <= aiBandMax:
			score += 20
		case d < aiBandMin:
			score += 10
		default:
			score -= d
		}
	}
	if cell, ok := s.board.Cell(h); ok {
		switch cell.Terrain {
		case hexmap.TerrainWoods:
			score += 15
		case hexmap.TerrainRough:
			score += 10
		}
		score += 5 * cell.Elevation
	}
	return score
}

// nearestEnemyDistance returns the hex distance from h to the closest
// living unit on the other side.
func (s *Session) nearestEnemyDistance(u *Unit, h hexmap.Hex) (int, bool) {
	best := 0
	found := false
	for _, other := range s.units {
		if other.Side == u.Side || !other.Alive() {
			continue
		}
		d := hexmap.Distance(h, other.Pos)
		if !found || d < best {
			best = d
			found = true
		}
	}
	return best, found
}

// chooseTarget picks the most attractive living enemy inside weapon range:
// damaged targets and close targets score higher. Returns nil when nothing
// is reachable.
func (s *Session) chooseTarget(u *Unit) *Unit {
	var best *Unit
	bestScore := 0.0
	for _, other := range s.units {
		if other.Side == u.Side || !other.Alive() {
			continue
		}
		d := hexmap.Distance(u.Pos, other.Pos)
		if !inWeaponRange(u, d) {
			continue
		}
		score := (1-other.ArmorFraction())*30 + float64(max(0, 20-2*d))
		if best == nil || score > bestScore {
			best = other
			bestScore = score
		}
	}
	return best
}

// runAITurn plays out the active enemy unit's whole turn. The AI never
// leaves a turn pending external input.
func (s *Session) runAITurn(u *Unit) {
	if u.Shutdown {
		s.record(Event{
			Type:    EventTurn,
			Actor:   u.ID,
			Message: fmt.Sprintf("%s is shut down and skips its turn", u.Name),
		})
		return
	}

	stay := s.scorePosition(u, u.Pos)
	bestHex := u.Pos
	bestScore := stay
	for _, h := range s.reachable(u) {
		if h == u.Pos {
			continue
		}
		if sc := s.scorePosition(u, h); sc > bestScore {
			bestScore = sc
			bestHex = h
		}
	}
	if bestHex != u.Pos {
		if err := s.attemptMove(u, bestHex); err != nil {
			s.logger.Warn().Str("unit", u.ID).Err(err).Msg("ai move rejected")
		}
	}
	s.sched.beginFiring()

	if tgt := s.chooseTarget(u); tgt != nil {
		if err := s.attemptAttack(u, tgt); err != nil {
			s.logger.Warn().Str("unit", u.ID).Err(err).Msg("ai attack rejected")
		}
		s.CheckVictory()
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
