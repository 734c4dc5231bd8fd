package replay

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dgrieve/ironlance/internal/engine"
)

func fixtureSpec(id string) engine.UnitSpec {
	return engine.UnitSpec{
		ID: id, Name: id, Tonnage: 50, Armor: 60, HeatCap: 30, WalkMP: 4,
		Gunnery: 4, Piloting: 5,
		Weapons: []engine.WeaponSpec{
			{Name: "ML", Damage: 5, Heat: 3, ShortRange: 3, MediumRange: 6, LongRange: 9, Ammo: engine.UnlimitedAmmo},
		},
	}
}

func TestRecorderFullFight(t *testing.T) {
	s := engine.New(engine.Config{Seed: 7, MaxRounds: 50, Logger: zerolog.Nop()},
		[]engine.UnitSpec{fixtureSpec("p1")}, []engine.UnitSpec{fixtureSpec("e1")})
	rec := NewRecorder(s)

	guard := 0
	for {
		if done, _ := s.Resolved(); done {
			break
		}
		if guard++; guard > 10000 {
			t.Fatal("fight never resolved")
		}
		err := s.Advance()
		rec.Observe(s)
		if errors.Is(err, engine.ErrAwaitingOrders) {
			// Simplest possible orders: hold position, end turn.
			_ = s.EndTurn(s.ActiveUnitID())
			rec.Observe(s)
		}
	}

	data, err := rec.Finish(s)
	if err != nil {
		t.Fatal(err)
	}
	if data.SessionID != s.ID() {
		t.Errorf("session id %q, want %q", data.SessionID, s.ID())
	}
	if data.MapRadius != s.Board().Radius() {
		t.Errorf("map radius %d, want %d", data.MapRadius, s.Board().Radius())
	}
	if len(data.Cells) != len(s.Board().Cells()) {
		t.Errorf("replay has %d cells, map has %d", len(data.Cells), len(s.Board().Cells()))
	}
	if len(data.Rounds) < 2 {
		t.Errorf("only %d snapshots recorded", len(data.Rounds))
	}
	if len(data.Events) == 0 {
		t.Error("no events recorded")
	}
	final := data.Rounds[len(data.Rounds)-1]
	if !final.Resolved {
		t.Error("final snapshot not resolved")
	}
}

func TestRecorderObserveDeduplicates(t *testing.T) {
	s := engine.New(engine.Config{Seed: 7, Logger: zerolog.Nop()},
		[]engine.UnitSpec{fixtureSpec("p1")}, []engine.UnitSpec{fixtureSpec("e1")})
	rec := NewRecorder(s)

	before := len(rec.data.Rounds)
	rec.Observe(s)
	rec.Observe(s)
	if len(rec.data.Rounds) != before {
		t.Errorf("Observe within the same round appended snapshots: %d -> %d",
			before, len(rec.data.Rounds))
	}
}

func TestFinishRequiresResolution(t *testing.T) {
	s := engine.New(engine.Config{Seed: 7, Logger: zerolog.Nop()},
		[]engine.UnitSpec{fixtureSpec("p1")}, []engine.UnitSpec{fixtureSpec("e1")})
	rec := NewRecorder(s)
	if _, err := rec.Finish(s); err == nil {
		t.Fatal("Finish succeeded on an unresolved session")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s := engine.New(engine.Config{Seed: 7, Logger: zerolog.Nop()},
		[]engine.UnitSpec{fixtureSpec("p1")}, nil)
	rec := NewRecorder(s)

	data, err := rec.Finish(s)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := data.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	back, err := FromJSON(raw)
	if err != nil {
		t.Fatal(err)
	}
	if back.SessionID != data.SessionID {
		t.Errorf("session id %q, want %q", back.SessionID, data.SessionID)
	}
	if back.MapRadius != data.MapRadius {
		t.Errorf("map radius %d, want %d", back.MapRadius, data.MapRadius)
	}
	if len(back.Events) != len(data.Events) {
		t.Errorf("events %d, want %d", len(back.Events), len(data.Events))
	}
	if back.Result.Victory != data.Result.Victory {
		t.Errorf("victory %v, want %v", back.Result.Victory, data.Result.Victory)
	}
}

func TestMapCellsOmitClear(t *testing.T) {
	s := engine.New(engine.Config{Seed: 7, Logger: zerolog.Nop()},
		[]engine.UnitSpec{fixtureSpec("p1")}, nil)
	rec := NewRecorder(s)
	for _, c := range rec.data.Cells {
		if c.Terrain == "clear" {
			t.Fatal("clear terrain should be encoded as the empty string")
		}
	}
}
