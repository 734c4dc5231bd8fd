package engine

import "math/rand/v2"

// ─── Random source ──────────────────────────────────────────────────────────
// Every roll in the engine flows through one Roller owned by the session, so
// a fixed seed fully determines the fight. Tests and replay generation rely
// on this.

type Roller interface {
	IntN(n int) int
}

// NewRoller returns a seeded PCG-backed roller.
func NewRoller(seed uint64) Roller {
	return rand.New(rand.NewPCG(seed, 0))
}

func rollD6(rng Roller) int {
	return rng.IntN(6) + 1
}

// roll2d6 returns a two-die sum in [2,12].
func roll2d6(rng Roller) int {
	return rollD6(rng) + rollD6(rng)
}
