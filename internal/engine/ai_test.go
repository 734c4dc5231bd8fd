package engine

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/dgrieve/ironlance/internal/hexmap"
)

func aiFixture(t *testing.T) *Session {
	t.Helper()
	player := UnitSpec{ID: "p1", Armor: 100, HeatCap: 30, WalkMP: 4,
		Weapons: []WeaponSpec{{Name: "ML", Damage: 5, Heat: 3, ShortRange: 3, MediumRange: 6, LongRange: 9, Ammo: UnlimitedAmmo}}}
	enemy := UnitSpec{ID: "e1", Armor: 100, HeatCap: 30, WalkMP: 4,
		Weapons: []WeaponSpec{{Name: "ML", Damage: 5, Heat: 3, ShortRange: 3, MediumRange: 6, LongRange: 9, Ammo: UnlimitedAmmo}}}
	return New(Config{Seed: 11, Logger: zerolog.Nop()},
		[]UnitSpec{player}, []UnitSpec{enemy})
}

func TestScorePositionBand(t *testing.T) {
	s := aiFixture(t)
	e := s.byID["e1"]
	p := s.byID["p1"]
	p.Pos = hexmap.Hex{Q: 0, R: 0}

	// Terrain under each candidate varies with the seed, so fold the
	// actual cell's contribution into the expected total.
	candidates := []struct {
		h        hexmap.Hex
		bandPart int
	}{
		{hexmap.Hex{Q: 8, R: 0}, 20},  // distance 8, inside the band
		{hexmap.Hex{Q: 6, R: 0}, 20},  // distance 6, band edge
		{hexmap.Hex{Q: 3, R: 0}, 10},  // distance 3, too close
		{hexmap.Hex{Q: 0, R: 8}, 20},  // distance 8 the other way
		{hexmap.Hex{Q: -8, R: 0}, 20}, // distance 8 west
	}
	for _, c := range candidates {
		want := c.bandPart
		if cell, ok := s.board.Cell(c.h); ok {
			switch cell.Terrain {
			case hexmap.TerrainWoods:
				want += 15
			case hexmap.TerrainRough:
				want += 10
			}
			want += 5 * cell.Elevation
		}
		if got := s.scorePosition(e, c.h); got != want {
			t.Errorf("scorePosition(%v) = %d, want %d", c.h, got, want)
		}
	}
}

func TestScorePositionFarPenalty(t *testing.T) {
	s := aiFixture(t)
	e := s.byID["e1"]
	p := s.byID["p1"]
	p.Pos = hexmap.Hex{Q: 8, R: 0}

	h := hexmap.Hex{Q: -8, R: 0} // distance 16 from the player
	want := -16
	if cell, ok := s.board.Cell(h); ok {
		switch cell.Terrain {
		case hexmap.TerrainWoods:
			want += 15
		case hexmap.TerrainRough:
			want += 10
		}
		want += 5 * cell.Elevation
	}
	if got := s.scorePosition(e, h); got != want {
		t.Errorf("scorePosition far = %d, want %d", got, want)
	}
}

func TestNearestEnemyDistance(t *testing.T) {
	s := aiFixture(t)
	e := s.byID["e1"]
	p := s.byID["p1"]
	p.Pos = hexmap.Hex{Q: 4, R: 0}

	d, ok := s.nearestEnemyDistance(e, hexmap.Hex{Q: 0, R: 0})
	if !ok || d != 4 {
		t.Errorf("nearestEnemyDistance = (%d, %v), want (4, true)", d, ok)
	}

	p.Destroyed = true
	if _, ok := s.nearestEnemyDistance(e, hexmap.Hex{Q: 0, R: 0}); ok {
		t.Error("dead units count as enemies")
	}
}

func TestChooseTargetPrefersDamaged(t *testing.T) {
	healthy := UnitSpec{ID: "healthy", Armor: 100, HeatCap: 30}
	wounded := UnitSpec{ID: "wounded", Armor: 100, HeatCap: 30}
	shooter := UnitSpec{ID: "shooter", Armor: 100, HeatCap: 30,
		Weapons: []WeaponSpec{{Name: "LL", Damage: 8, Heat: 6, ShortRange: 5, MediumRange: 10, LongRange: 15, Ammo: UnlimitedAmmo}}}

	s := New(Config{Seed: 3, Logger: zerolog.Nop()},
		[]UnitSpec{healthy, wounded}, []UnitSpec{shooter})
	e := s.byID["shooter"]
	e.Pos = hexmap.Hex{Q: 0, R: 0}
	s.byID["healthy"].Pos = hexmap.Hex{Q: 4, R: 0}
	s.byID["wounded"].Pos = hexmap.Hex{Q: 4, R: -4}
	s.byID["wounded"].Armor = 20

	tgt := s.chooseTarget(e)
	if tgt == nil || tgt.ID != "wounded" {
		t.Fatalf("chooseTarget = %v, want the damaged unit at equal distance", tgt)
	}
}

func TestChooseTargetPrefersClose(t *testing.T) {
	near := UnitSpec{ID: "near", Armor: 100, HeatCap: 30}
	far := UnitSpec{ID: "far", Armor: 100, HeatCap: 30}
	shooter := UnitSpec{ID: "shooter", Armor: 100, HeatCap: 30,
		Weapons: []WeaponSpec{{Name: "LL", Damage: 8, Heat: 6, ShortRange: 5, MediumRange: 10, LongRange: 15, Ammo: UnlimitedAmmo}}}

	s := New(Config{Seed: 3, Logger: zerolog.Nop()},
		[]UnitSpec{near, far}, []UnitSpec{shooter})
	e := s.byID["shooter"]
	e.Pos = hexmap.Hex{Q: 0, R: 0}
	s.byID["near"].Pos = hexmap.Hex{Q: 2, R: 0}
	s.byID["far"].Pos = hexmap.Hex{Q: 8, R: 0}

	tgt := s.chooseTarget(e)
	if tgt == nil || tgt.ID != "near" {
		t.Fatalf("chooseTarget = %v, want the closer unit", tgt)
	}
}

func TestChooseTargetRespectsRange(t *testing.T) {
	player := UnitSpec{ID: "p1", Armor: 100, HeatCap: 30}
	shooter := UnitSpec{ID: "shooter", Armor: 100, HeatCap: 30,
		Weapons: []WeaponSpec{{Name: "ML", Damage: 5, Heat: 3, ShortRange: 3, MediumRange: 6, LongRange: 9, Ammo: UnlimitedAmmo}}}

	s := New(Config{Seed: 3, Logger: zerolog.Nop()},
		[]UnitSpec{player}, []UnitSpec{shooter})
	e := s.byID["shooter"]
	e.Pos = hexmap.Hex{Q: 0, R: 0}
	s.byID["p1"].Pos = hexmap.Hex{Q: 0, R: -12}

	if tgt := s.chooseTarget(e); tgt != nil {
		t.Errorf("chooseTarget = %s beyond long range, want nil", tgt.ID)
	}
}

func TestRunAITurnShutdownSkips(t *testing.T) {
	s := aiFixture(t)
	e := s.byID["e1"]
	e.Shutdown = true
	before := e.Pos

	s.runAITurn(e)
	if e.Pos != before {
		t.Error("shutdown unit moved")
	}
	if e.HasFired {
		t.Error("shutdown unit fired")
	}

	var skipped bool
	for _, ev := range s.Events(0) {
		if ev.Type == EventTurn && ev.Actor == "e1" {
			skipped = true
		}
	}
	if !skipped {
		t.Error("no turn event recorded for the skipped unit")
	}
}

func TestRunAITurnActsAndFires(t *testing.T) {
	s := aiFixture(t)
	e := s.byID["e1"]
	p := s.byID["p1"]
	e.Pos = hexmap.Hex{Q: 0, R: 0}
	p.Pos = hexmap.Hex{Q: 2, R: 0}

	s.runAITurn(e)
	if !e.HasFired {
		t.Error("AI with a target in range did not fire")
	}
}
