package engine

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dgrieve/ironlance/internal/hexmap"
)

func TestBracketDamage(t *testing.T) {
	ac20 := &Weapon{Name: "AC/20", Damage: 20, ShortRange: 3, MediumRange: 6, LongRange: 9}
	tests := []struct {
		dist    int
		want    int
		inRange bool
	}{
		{1, 20, true},
		{3, 20, true},
		{4, 16, true},
		{6, 16, true},
		{7, 12, true},
		{9, 12, true},
		{10, 0, false},
	}
	for _, tt := range tests {
		got, ok := bracketDamage(ac20, tt.dist)
		if got != tt.want || ok != tt.inRange {
			t.Errorf("bracketDamage(AC/20, %d) = (%d, %v), want (%d, %v)",
				tt.dist, got, ok, tt.want, tt.inRange)
		}
	}
}

func TestBracketDamageSmallValues(t *testing.T) {
	// A 5-point weapon must keep a full 4 at medium and 3 at long; float
	// truncation would lose a point at long range.
	ml := &Weapon{Name: "ML", Damage: 5, ShortRange: 3, MediumRange: 6, LongRange: 9}
	if got, _ := bracketDamage(ml, 5); got != 4 {
		t.Errorf("medium bracket = %d, want 4", got)
	}
	if got, _ := bracketDamage(ml, 8); got != 3 {
		t.Errorf("long bracket = %d, want 3", got)
	}
}

func TestTargetNumber(t *testing.T) {
	tests := []struct {
		name    string
		gunnery int
		heat    int
		moved   bool
		want    int
	}{
		{"stationary cold", 2, 0, false, 6},
		{"stationary warm", 2, 4, false, 6},
		{"heat penalty kicks in", 2, 5, false, 7},
		{"double heat penalty", 2, 10, false, 8},
		{"moved", 2, 0, true, 8},
		{"moved and hot", 4, 7, true, 11},
	}
	for _, tt := range tests {
		u := &Unit{Pilot: PilotSkill{Gunnery: tt.gunnery}, Heat: tt.heat, HasMoved: tt.moved}
		if got := targetNumber(u); got != tt.want {
			t.Errorf("%s: targetNumber = %d, want %d", tt.name, got, tt.want)
		}
	}
}

// attackFixture builds a two-unit session with the attacker adjacent to a
// durable target, on a fixed seed.
func attackFixture(t *testing.T, attacker UnitSpec, seed uint64) (*Session, *Unit, *Unit) {
	t.Helper()
	target := UnitSpec{ID: "tgt", Armor: 500, HeatCap: 30, WalkMP: 0}
	s := New(Config{Seed: seed, Logger: zerolog.Nop()},
		[]UnitSpec{attacker}, []UnitSpec{target})
	att := s.byID[attacker.ID]
	tgt := s.byID["tgt"]
	att.Pos = hexmap.Hex{Q: 0, R: 0}
	tgt.Pos = hexmap.Hex{Q: 2, R: 0}
	return s, att, tgt
}

func TestAttackAppliesHeatOnce(t *testing.T) {
	attacker := UnitSpec{
		ID: "att", Armor: 100, HeatCap: 30, WalkMP: 4, Gunnery: 2,
		Weapons: []WeaponSpec{
			{Name: "AC/20", Damage: 20, Heat: 7, ShortRange: 3, MediumRange: 6, LongRange: 9, Ammo: 10},
			{Name: "LL", Damage: 8, Heat: 6, ShortRange: 5, MediumRange: 10, LongRange: 15, Ammo: UnlimitedAmmo},
			{Name: "ML", Damage: 5, Heat: 4, ShortRange: 3, MediumRange: 6, LongRange: 9, Ammo: UnlimitedAmmo},
		},
	}
	s, att, tgt := attackFixture(t, attacker, 1)

	if err := s.attemptAttack(att, tgt); err != nil {
		t.Fatal(err)
	}
	if att.Heat != 17 {
		t.Errorf("attacker heat = %d, want 17 (7+6+4 in one batch)", att.Heat)
	}
	if !att.HasFired {
		t.Error("attacker not flagged as fired")
	}
}

func TestAttackSpendsAmmoOnMiss(t *testing.T) {
	attacker := UnitSpec{
		// Gunnery 10 makes the target number unreachable on 2d6.
		ID: "att", Armor: 100, HeatCap: 30, Gunnery: 10,
		Weapons: []WeaponSpec{
			{Name: "AC/10", Damage: 10, Heat: 3, ShortRange: 5, MediumRange: 10, LongRange: 15, Ammo: 4},
		},
	}
	s, att, tgt := attackFixture(t, attacker, 1)

	if err := s.attemptAttack(att, tgt); err != nil {
		t.Fatal(err)
	}
	if att.Weapons[0].Ammo != 3 {
		t.Errorf("ammo = %d after a miss, want 3", att.Weapons[0].Ammo)
	}
	if tgt.Armor != tgt.ArmorMax {
		t.Errorf("target took %d damage from guaranteed misses", tgt.ArmorMax-tgt.Armor)
	}
	for _, ev := range s.Events(0) {
		if ev.Type == EventHit {
			t.Errorf("hit event recorded against target number %d", ev.Need)
		}
	}
}

func TestAttackGuaranteedHit(t *testing.T) {
	attacker := UnitSpec{
		// Gunnery -2 gives target number 2: every roll hits.
		ID: "att", Armor: 100, HeatCap: 30, Gunnery: -2,
		Weapons: []WeaponSpec{
			{Name: "AC/20", Damage: 20, Heat: 7, ShortRange: 3, MediumRange: 6, LongRange: 9, Ammo: 10},
		},
	}
	s, att, tgt := attackFixture(t, attacker, 1)

	if err := s.attemptAttack(att, tgt); err != nil {
		t.Fatal(err)
	}
	if got := tgt.ArmorMax - tgt.Armor; got != 20 {
		t.Errorf("target took %d damage at short range, want 20", got)
	}
}

func TestAttackRejections(t *testing.T) {
	attacker := UnitSpec{
		ID: "att", Armor: 100, HeatCap: 30,
		Weapons: []WeaponSpec{
			{Name: "ML", Damage: 5, Heat: 3, ShortRange: 3, MediumRange: 6, LongRange: 9, Ammo: UnlimitedAmmo},
		},
	}
	s, att, tgt := attackFixture(t, attacker, 1)

	if err := s.attemptAttack(att, att); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("self-target: err = %v, want ErrInvalidTarget", err)
	}

	att.Shutdown = true
	if err := s.attemptAttack(att, tgt); !errors.Is(err, ErrShutdown) {
		t.Errorf("shutdown: err = %v, want ErrShutdown", err)
	}
	att.Shutdown = false

	tgt.Destroyed = true
	if err := s.attemptAttack(att, tgt); !errors.Is(err, ErrTargetDead) {
		t.Errorf("dead target: err = %v, want ErrTargetDead", err)
	}
	tgt.Destroyed = false

	if err := s.attemptAttack(att, tgt); err != nil {
		t.Fatal(err)
	}
	if err := s.attemptAttack(att, tgt); !errors.Is(err, ErrAlreadyFired) {
		t.Errorf("second attack: err = %v, want ErrAlreadyFired", err)
	}
}

func TestAttackOutOfRangeStillEndsFiring(t *testing.T) {
	attacker := UnitSpec{
		ID: "att", Armor: 100, HeatCap: 30, Gunnery: -2,
		Weapons: []WeaponSpec{
			{Name: "ML", Damage: 5, Heat: 3, ShortRange: 3, MediumRange: 6, LongRange: 9, Ammo: UnlimitedAmmo},
		},
	}
	s, att, tgt := attackFixture(t, attacker, 1)
	tgt.Pos = hexmap.Hex{Q: 20, R: 0}

	if err := s.attemptAttack(att, tgt); err != nil {
		t.Fatal(err)
	}
	if att.Heat != 0 {
		t.Errorf("heat %d from weapons that never fired", att.Heat)
	}
	if !att.HasFired {
		t.Error("attack action did not consume the firing phase")
	}
}

func TestAttackDeterministic(t *testing.T) {
	attacker := UnitSpec{
		ID: "att", Armor: 100, HeatCap: 60, Gunnery: 4,
		Weapons: []WeaponSpec{
			{Name: "ML", Damage: 5, Heat: 3, ShortRange: 3, MediumRange: 6, LongRange: 9, Ammo: UnlimitedAmmo},
			{Name: "LL", Damage: 8, Heat: 6, ShortRange: 5, MediumRange: 10, LongRange: 15, Ammo: UnlimitedAmmo},
		},
	}

	run := func() []Event {
		s, att, tgt := attackFixture(t, attacker, 77)
		if err := s.attemptAttack(att, tgt); err != nil {
			t.Fatal(err)
		}
		return s.Events(0)
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("event streams differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Roll != b[i].Roll || a[i].Type != b[i].Type || a[i].Damage != b[i].Damage {
			t.Errorf("event %d differs between identically seeded runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
