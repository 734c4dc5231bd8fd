package engine

import (
	"fmt"

	"github.com/dgrieve/ironlance/internal/hexmap"
)

// ─── Movement Resolver ──────────────────────────────────────────────────────

// jumpBaseHeat is the minimum heat cost of a jump.
const jumpBaseHeat = 3

// effectiveWalk returns the walking allowance after the overheat penalty.
// Heat above two thirds of capacity costs one hex of movement.
func effectiveWalk(u *Unit) int {
	mp := u.WalkMP
	if u.overheated() {
		mp--
	}
	if mp < 0 {
		mp = 0
	}
	return mp
}

// maxReach is the farthest the unit can end up this turn, walking or jumping.
func maxReach(u *Unit) int {
	walk := effectiveWalk(u)
	if u.JumpMP > walk {
		return u.JumpMP
	}
	return walk
}

// Reachable returns every hex the unit could legally move to this turn:
// on the map, within walking or jumping range, and not occupied by another
// living unit. Scan order is fixed so AI tie-breaking is deterministic.
func (s *Session) Reachable(unitID string) ([]hexmap.Hex, error) {
	u, ok := s.byID[unitID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUnit, unitID)
	}
	return s.reachable(u), nil
}

func (s *Session) reachable(u *Unit) []hexmap.Hex {
	reach := maxReach(u)
	var out []hexmap.Hex
	for q := u.Pos.Q - reach; q <= u.Pos.Q+reach; q++ {
		for r := u.Pos.R - reach; r <= u.Pos.R+reach; r++ {
			h := hexmap.Hex{Q: q, R: r}
			if hexmap.Distance(u.Pos, h) > reach {
				continue
			}
			if !s.board.Contains(h) {
				continue
			}
			if s.occupiedByOther(h, u) {
				continue
			}
			out = append(out, h)
		}
	}
	return out
}

// occupiedByOther reports whether a different living unit stands on h.
func (s *Session) occupiedByOther(h hexmap.Hex, u *Unit) bool {
	for _, other := range s.units {
		if other == u || !other.Alive() {
			continue
		}
		if other.Pos == h {
			return true
		}
	}
	return false
}

// attemptMove applies a move for the active unit. Rejections are no-ops.
func (s *Session) attemptMove(u *Unit, dest hexmap.Hex) error {
	switch {
	case u.Destroyed:
		return ErrUnitDestroyed
	case u.Shutdown:
		return ErrShutdown
	case u.HasMoved:
		return ErrAlreadyMoved
	}

	dist := hexmap.Distance(u.Pos, dest)
	walk := effectiveWalk(u)
	jumped := dist > walk
	if jumped && dist > u.JumpMP {
		return ErrNotReachable
	}
	if !s.board.Contains(dest) || s.occupiedByOther(dest, u) {
		return ErrNotReachable
	}

	u.Pos = dest
	u.HasMoved = true

	evType := EventMove
	if jumped {
		evType = EventJump
		heat := dist
		if heat < jumpBaseHeat {
			heat = jumpBaseHeat
		}
		s.addHeatLogged(u, heat)
	} else if dist*2 > u.WalkMP {
		// Running generates more heat than walking.
		s.addHeatLogged(u, dist/2)
	}

	s.record(Event{
		Type:    evType,
		Actor:   u.ID,
		Message: fmt.Sprintf("%s moved %d hexes to (%d,%d)", u.Name, dist, dest.Q, dest.R),
	})
	return nil
}
