package engine

import (
	"fmt"

	"github.com/dgrieve/ironlance/internal/hexmap"
)

// ─── Attack Resolver ────────────────────────────────────────────────────────
// One attack action resolves every eligible weapon against a single target.
// Deterministic given a fixed roll stream: weapons resolve in loadout order,
// one 2d6 roll each.

const baseDifficulty = 4

// bracketDamage returns the damage a weapon deals at the given distance.
// Range fall-off: short x1.0, medium x0.8, long x0.6, floored. Integer
// math so medium/long brackets never lose a point to float rounding.
// Returns false beyond long range.
func bracketDamage(w *Weapon, dist int) (int, bool) {
	switch {
	case dist <= w.ShortRange:
		return w.Damage, true
	case dist <= w.MediumRange:
		return w.Damage * 4 / 5, true
	case dist <= w.LongRange:
		return w.Damage * 3 / 5, true
	}
	return 0, false
}

// targetNumber is the 2d6 threshold to hit: gunnery + base difficulty,
// plus a heat penalty per 5 points of heat, plus 2 if the attacker moved
// this turn.
func targetNumber(att *Unit) int {
	tn := att.Pilot.Gunnery + baseDifficulty + att.Heat/5
	if att.HasMoved {
		tn += 2
	}
	return tn
}

// attemptAttack resolves att firing everything it can at tgt. Rejections
// are no-ops; a resolved attack marks the attacker as having fired even if
// every weapon missed or was out of range.
func (s *Session) attemptAttack(att, tgt *Unit) error {
	switch {
	case att.Destroyed:
		return ErrUnitDestroyed
	case att.Shutdown:
		return ErrShutdown
	case att.HasFired:
		return ErrAlreadyFired
	case att == tgt:
		return ErrInvalidTarget
	case tgt.Destroyed:
		return ErrTargetDead
	}

	dist := hexmap.Distance(att.Pos, tgt.Pos)
	tn := targetNumber(att)
	pendingHeat := 0

	for i := range att.Weapons {
		w := &att.Weapons[i]
		if !w.CanFire() {
			continue
		}
		dmg, inRange := bracketDamage(w, dist)
		if !inRange {
			continue
		}

		roll := roll2d6(s.rng)
		w.SpendAmmo()
		pendingHeat += w.Heat

		if roll >= tn {
			tgt.ApplyDamage(dmg)
			s.record(Event{
				Type:    EventHit,
				Actor:   att.ID,
				Target:  tgt.ID,
				Weapon:  w.Name,
				Roll:    roll,
				Need:    tn,
				Damage:  dmg,
				Message: fmt.Sprintf("%s hits %s with %s for %d", att.Name, tgt.Name, w.Name, dmg),
			})
		} else {
			s.record(Event{
				Type:    EventMiss,
				Actor:   att.ID,
				Target:  tgt.ID,
				Weapon:  w.Name,
				Roll:    roll,
				Need:    tn,
				Message: fmt.Sprintf("%s misses %s with %s", att.Name, tgt.Name, w.Name),
			})
		}
	}

	s.addHeatLogged(att, pendingHeat)
	att.HasFired = true

	if tgt.Destroyed {
		s.record(Event{
			Type:    EventDestroyed,
			Actor:   att.ID,
			Target:  tgt.ID,
			Message: fmt.Sprintf("%s destroyed", tgt.Name),
		})
	}
	return nil
}

// inWeaponRange reports whether att has any weapon with ammo that can reach
// a target at the given distance.
func inWeaponRange(att *Unit, dist int) bool {
	for i := range att.Weapons {
		w := &att.Weapons[i]
		if w.CanFire() && dist <= w.LongRange {
			return true
		}
	}
	return false
}
