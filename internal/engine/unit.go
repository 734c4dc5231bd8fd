package engine

import (
	"fmt"

	"github.com/dgrieve/ironlance/internal/hexmap"
)

// ─── Sides ──────────────────────────────────────────────────────────────────

type Side int

const (
	SidePlayer Side = iota
	SideEnemy
)

func (s Side) String() string {
	if s == SideEnemy {
		return "enemy"
	}
	return "player"
}

// ─── Weapon ─────────────────────────────────────────────────────────────────

// UnlimitedAmmo marks a weapon that never runs dry (energy weapons).
const UnlimitedAmmo = -1

// Weapon is owned by exactly one unit. Ammo is spent on every resolved
// shot, hit or miss.
type Weapon struct {
	Name        string
	Damage      int
	Heat        int
	ShortRange  int
	MediumRange int
	LongRange   int
	Ammo        int // rounds remaining, UnlimitedAmmo for no tracking
	AmmoUsed    int
}

// CanFire reports whether the weapon has ammo left.
func (w *Weapon) CanFire() bool {
	return w.Ammo != 0
}

// SpendAmmo consumes one round on ammo-limited weapons.
func (w *Weapon) SpendAmmo() {
	if w.Ammo > 0 {
		w.Ammo--
	}
	w.AmmoUsed++
}

// ─── Combat Unit ────────────────────────────────────────────────────────────

type PilotSkill struct {
	Gunnery  int // lower = better
	Piloting int
}

// Unit is the mutable per-unit combat state. Units are flagged destroyed,
// never removed from the roster.
type Unit struct {
	ID      string
	Name    string
	Side    Side
	Tonnage int

	Pos hexmap.Hex

	ArmorMax int
	Armor    int
	HeatMax  int
	Heat     int

	WalkMP int
	JumpMP int

	Weapons []Weapon
	Pilot   PilotSkill

	HasMoved  bool
	HasFired  bool
	Destroyed bool
	Shutdown  bool
}

// Alive reports whether the unit still participates in combat.
func (u *Unit) Alive() bool {
	return !u.Destroyed
}

// ApplyDamage reduces armor, clamping at zero. A unit reaching zero armor
// is destroyed.
func (u *Unit) ApplyDamage(amount int) {
	if amount <= 0 || u.Destroyed {
		return
	}
	u.Armor -= amount
	if u.Armor <= 0 {
		u.Armor = 0
		u.Destroyed = true
	}
}

// AddHeat accumulates heat. If the pre-clamp sum exceeds the heat capacity
// the reactor shuts down; heat is then clamped back to capacity.
func (u *Unit) AddHeat(amount int) {
	if amount <= 0 {
		return
	}
	u.Heat += amount
	if u.Heat > u.HeatMax {
		u.Heat = u.HeatMax
		u.Shutdown = true
	}
}

// DissipateHeat sheds heat at round boundaries. A shutdown unit restarts
// once heat falls below 80% of capacity.
func (u *Unit) DissipateHeat(amount int) {
	u.Heat -= amount
	if u.Heat < 0 {
		u.Heat = 0
	}
	if u.Shutdown && u.Heat*5 < u.HeatMax*4 {
		u.Shutdown = false
	}
}

// ResetTurnFlags clears the per-round action flags for living,
// non-shutdown units.
func (u *Unit) ResetTurnFlags() {
	if u.Destroyed || u.Shutdown {
		return
	}
	u.HasMoved = false
	u.HasFired = false
}

// ArmorFraction returns remaining armor as a fraction of maximum.
func (u *Unit) ArmorFraction() float64 {
	if u.ArmorMax == 0 {
		return 0
	}
	return float64(u.Armor) / float64(u.ArmorMax)
}

// AmmoConsumed sums rounds spent across all weapons.
func (u *Unit) AmmoConsumed() int {
	total := 0
	for i := range u.Weapons {
		total += u.Weapons[i].AmmoUsed
	}
	return total
}

// overheated reports whether heat exceeds two thirds of capacity, which
// slows walking movement.
func (u *Unit) overheated() bool {
	return u.Heat*3 > u.HeatMax*2
}

// ─── Setup specs ────────────────────────────────────────────────────────────
// UnitSpec is the roster collaborator's input: everything needed to stand
// up a combat unit at session start.

type WeaponSpec struct {
	Name        string `json:"name"`
	Damage      int    `json:"damage"`
	Heat        int    `json:"heat"`
	ShortRange  int    `json:"shortRange"`
	MediumRange int    `json:"mediumRange"`
	LongRange   int    `json:"longRange"`
	Ammo        int    `json:"ammo"` // -1 for unlimited
}

type UnitSpec struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Tonnage  int          `json:"tonnage"`
	Armor    int          `json:"armor"`
	HeatCap  int          `json:"heatCapacity"`
	WalkMP   int          `json:"walkMP"`
	JumpMP   int          `json:"jumpMP"`
	Gunnery  int          `json:"gunnery"`
	Piloting int          `json:"piloting"`
	Weapons  []WeaponSpec `json:"weapons"`
}

// buildUnit validates a spec and constructs the unit. Invariants are
// enforced here so resolvers never see a malformed unit.
func buildUnit(spec UnitSpec, side Side) (*Unit, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("unit spec missing id")
	}
	if spec.Armor <= 0 {
		return nil, fmt.Errorf("unit %s: armor must be positive, got %d", spec.ID, spec.Armor)
	}
	if spec.HeatCap <= 0 {
		return nil, fmt.Errorf("unit %s: heat capacity must be positive, got %d", spec.ID, spec.HeatCap)
	}
	if spec.WalkMP < 0 || spec.JumpMP < 0 {
		return nil, fmt.Errorf("unit %s: negative movement allowance", spec.ID)
	}
	u := &Unit{
		ID:       spec.ID,
		Name:     spec.Name,
		Side:     side,
		Tonnage:  spec.Tonnage,
		ArmorMax: spec.Armor,
		Armor:    spec.Armor,
		HeatMax:  spec.HeatCap,
		WalkMP:   spec.WalkMP,
		JumpMP:   spec.JumpMP,
		Pilot:    PilotSkill{Gunnery: spec.Gunnery, Piloting: spec.Piloting},
	}
	if u.Name == "" {
		u.Name = u.ID
	}
	for _, ws := range spec.Weapons {
		if ws.LongRange < ws.MediumRange || ws.MediumRange < ws.ShortRange || ws.ShortRange < 1 {
			return nil, fmt.Errorf("unit %s: weapon %s has invalid range brackets %d/%d/%d",
				spec.ID, ws.Name, ws.ShortRange, ws.MediumRange, ws.LongRange)
		}
		if ws.Damage < 0 || ws.Heat < 0 {
			return nil, fmt.Errorf("unit %s: weapon %s has negative damage or heat", spec.ID, ws.Name)
		}
		u.Weapons = append(u.Weapons, Weapon{
			Name:        ws.Name,
			Damage:      ws.Damage,
			Heat:        ws.Heat,
			ShortRange:  ws.ShortRange,
			MediumRange: ws.MediumRange,
			LongRange:   ws.LongRange,
			Ammo:        ws.Ammo,
		})
	}
	return u, nil
}
