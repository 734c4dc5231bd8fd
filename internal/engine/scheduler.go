package engine

import "sort"

// ─── Turn Scheduler ─────────────────────────────────────────────────────────
// Per-round state machine: roll initiative, then walk the queue giving each
// living unit a movement phase and a firing phase. Destroyed units never
// enter the queue; units destroyed mid-round are skipped when the cursor
// reaches them.

type Phase int

const (
	PhaseMovement Phase = iota
	PhaseFiring
	PhaseDone // terminal: combat resolved
)

func (p Phase) String() string {
	switch p {
	case PhaseMovement:
		return "movement"
	case PhaseFiring:
		return "firing"
	default:
		return "done"
	}
}

type initiativeEntry struct {
	unitID string
	score  int
	tons   int
}

type turnScheduler struct {
	round     int
	maxRounds int
	queue     []string
	cursor    int
	phase     Phase
	halted    bool
}

// startRound rolls initiative for every living unit and rebuilds the queue.
// Lower scores act first; exact ties go to the lighter unit.
func (ts *turnScheduler) startRound(units []*Unit, rng Roller) []initiativeEntry {
	ts.round++
	entries := make([]initiativeEntry, 0, len(units))
	for _, u := range units {
		if !u.Alive() {
			continue
		}
		entries = append(entries, initiativeEntry{
			unitID: u.ID,
			score:  u.Pilot.Piloting + roll2d6(rng),
			tons:   u.Tonnage,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score < entries[j].score
		}
		return entries[i].tons < entries[j].tons
	})
	ts.queue = ts.queue[:0]
	for _, e := range entries {
		ts.queue = append(ts.queue, e.unitID)
	}
	ts.cursor = 0
	ts.phase = PhaseMovement
	return entries
}

// active returns the id of the unit whose turn it is, or "" when the queue
// is exhausted or the scheduler halted.
func (ts *turnScheduler) active() string {
	if ts.halted || ts.cursor >= len(ts.queue) {
		return ""
	}
	return ts.queue[ts.cursor]
}

// beginFiring transitions the active unit from movement to firing.
func (ts *turnScheduler) beginFiring() {
	if ts.phase == PhaseMovement {
		ts.phase = PhaseFiring
	}
}

// nextUnit advances the cursor. Returns false when the round is over.
func (ts *turnScheduler) nextUnit() bool {
	if ts.halted {
		return false
	}
	ts.cursor++
	ts.phase = PhaseMovement
	return ts.cursor < len(ts.queue)
}

// halt stops the scheduler permanently.
func (ts *turnScheduler) halt() {
	ts.halted = true
	ts.phase = PhaseDone
	ts.queue = nil
	ts.cursor = 0
}
