package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dgrieve/ironlance/internal/hexmap"
)

// ─── Combat Session ─────────────────────────────────────────────────────────
// Owns the battlefield, both rosters, the scheduler, and the roll stream.
// All operations are synchronous and total: invalid orders are rejected
// with an error and zero state change. The session is not goroutine-safe;
// callers serialize access.

const (
	defaultMapRadius = 8
	defaultMaxRounds = 200

	// Passive heat shed by every unit at each round boundary.
	roundHeatDissipation = 1
)

type Config struct {
	MapRadius int
	MaxRounds int
	Seed      uint64
	Logger    zerolog.Logger
}

type Session struct {
	id     string
	board  *hexmap.Map
	units  []*Unit
	byID   map[string]*Unit
	sched  turnScheduler
	rng    Roller
	logger zerolog.Logger

	events   []Event
	resolved bool
	victory  bool
	rounds   int
}

// New builds the battlefield, deploys both sides at opposite edges, and
// rolls the first turn queue. Malformed unit specs are dropped with a
// warning event rather than aborting; an empty side leaves the session
// eligible for immediate resolution on the first victory check.
func New(cfg Config, player, enemy []UnitSpec) *Session {
	if cfg.MapRadius <= 0 {
		cfg.MapRadius = defaultMapRadius
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = defaultMaxRounds
	}

	s := &Session{
		id:     uuid.NewString(),
		rng:    NewRoller(cfg.Seed),
		logger: cfg.Logger,
		byID:   make(map[string]*Unit),
	}
	s.board = hexmap.Generate(cfg.MapRadius, s.rng)
	s.sched.maxRounds = cfg.MaxRounds

	s.enlist(player, SidePlayer)
	s.enlist(enemy, SideEnemy)
	s.deploy(SidePlayer, false)
	s.deploy(SideEnemy, true)

	if len(s.unitsOn(SideEnemy)) == 0 {
		s.record(Event{Type: EventWarning, Message: "enemy roster is empty"})
	}
	if len(s.unitsOn(SidePlayer)) == 0 {
		s.record(Event{Type: EventWarning, Message: "player roster is empty"})
	}

	s.beginRound()
	s.CheckVictory()
	return s
}

func (s *Session) enlist(specs []UnitSpec, side Side) {
	for _, spec := range specs {
		u, err := buildUnit(spec, side)
		if err != nil {
			s.record(Event{
				Type:    EventWarning,
				Message: fmt.Sprintf("dropping malformed unit spec: %v", err),
			})
			continue
		}
		if _, dup := s.byID[u.ID]; dup {
			s.record(Event{
				Type:    EventWarning,
				Message: fmt.Sprintf("dropping duplicate unit id %s", u.ID),
			})
			continue
		}
		s.units = append(s.units, u)
		s.byID[u.ID] = u
	}
}

// deploy places a side's units along its map edge, enemy north (-radius),
// player south (+radius), spilling inward as rows fill.
func (s *Session) deploy(side Side, north bool) {
	radius := s.board.Radius()
	for _, u := range s.unitsOn(side) {
		placed := false
		for ring := 0; ring <= 2*radius && !placed; ring++ {
			r := radius - ring
			if north {
				r = -radius + ring
			}
			for q := -radius; q <= radius && !placed; q++ {
				h := hexmap.Hex{Q: q, R: r}
				if !s.board.Contains(h) || s.occupiedByOther(h, u) {
					continue
				}
				u.Pos = h
				placed = true
			}
		}
	}
}

func (s *Session) unitsOn(side Side) []*Unit {
	var out []*Unit
	for _, u := range s.units {
		if u.Side == side {
			out = append(out, u)
		}
	}
	return out
}

// ─── Round bookkeeping ──────────────────────────────────────────────────────

func (s *Session) beginRound() {
	for _, u := range s.units {
		u.ResetTurnFlags()
	}
	entries := s.sched.startRound(s.units, s.rng)
	order := ""
	for i, e := range entries {
		if i > 0 {
			order += ", "
		}
		order += fmt.Sprintf("%s(%d)", e.unitID, e.score)
	}
	s.record(Event{
		Type:    EventRound,
		Message: fmt.Sprintf("round %d: initiative order %s", s.sched.round, order),
	})
}

func (s *Session) endRound() {
	for _, u := range s.units {
		wasDown := u.Shutdown
		u.DissipateHeat(roundHeatDissipation)
		if wasDown && !u.Shutdown {
			s.record(Event{
				Type:    EventRestart,
				Actor:   u.ID,
				Message: fmt.Sprintf("%s powers back up", u.Name),
			})
		}
	}
	if s.CheckVictory() {
		return
	}
	if s.sched.round >= s.sched.maxRounds {
		s.resolve(false, "round limit reached, fight abandoned")
	}
}

// finishTurn advances the cursor past the current unit, rolling into a new
// round when the queue is exhausted and skipping units destroyed mid-round.
func (s *Session) finishTurn() {
	for {
		if s.resolved {
			return
		}
		if !s.sched.nextUnit() {
			s.endRound()
			if s.resolved {
				return
			}
			s.beginRound()
		}
		if id := s.sched.active(); id != "" && s.byID[id].Alive() {
			return
		}
	}
}

// ─── External contract ──────────────────────────────────────────────────────

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Board exposes the read-only battlefield.
func (s *Session) Board() *hexmap.Map { return s.board }

// Units returns the full roster, destroyed units included.
func (s *Session) Units() []*Unit {
	out := make([]*Unit, len(s.units))
	copy(out, s.units)
	return out
}

// ActiveUnitID returns the unit whose turn it is, or "" once resolved.
func (s *Session) ActiveUnitID() string { return s.sched.active() }

// Round returns the current round number.
func (s *Session) Round() int { return s.sched.round }

// Phase returns the active unit's current phase.
func (s *Session) Phase() Phase { return s.sched.phase }

// Resolved reports whether combat has ended, and who won.
func (s *Session) Resolved() (done, victory bool) {
	return s.resolved, s.victory
}

// Events returns all events with sequence numbers greater than since.
func (s *Session) Events(since int) []Event {
	for i, e := range s.events {
		if e.Seq > since {
			out := make([]Event, len(s.events)-i)
			copy(out, s.events[i:])
			return out
		}
	}
	return nil
}

// Advance performs the next engine-driven step: it plays out a full AI
// turn, or skips a unit with no legal actions. When the active unit is an
// operable player unit it returns ErrAwaitingOrders and the caller issues
// move/attack/end-turn instead. Pacing between steps is the caller's
// business; Advance never waits.
func (s *Session) Advance() error {
	if s.resolved {
		return ErrResolved
	}
	id := s.sched.active()
	if id == "" {
		s.finishTurn()
		if s.resolved {
			return ErrResolved
		}
		id = s.sched.active()
	}
	u := s.byID[id]

	if u.Side == SidePlayer {
		if u.Shutdown {
			s.record(Event{
				Type:    EventTurn,
				Actor:   u.ID,
				Message: fmt.Sprintf("%s is shut down and skips its turn", u.Name),
			})
			s.finishTurn()
			return nil
		}
		return ErrAwaitingOrders
	}

	s.runAITurn(u)
	if !s.resolved {
		s.finishTurn()
	}
	return nil
}

// AttemptMove moves the active player unit. Rejected orders change nothing.
func (s *Session) AttemptMove(unitID string, dest hexmap.Hex) error {
	u, err := s.orderedUnit(unitID)
	if err != nil {
		return err
	}
	if s.sched.phase != PhaseMovement {
		return s.rejected(u, ErrWrongPhase)
	}
	if err := s.attemptMove(u, dest); err != nil {
		return s.rejected(u, err)
	}
	s.sched.beginFiring()
	return nil
}

// SkipMove gives up the active player unit's movement phase.
func (s *Session) SkipMove(unitID string) error {
	u, err := s.orderedUnit(unitID)
	if err != nil {
		return err
	}
	if s.sched.phase != PhaseMovement {
		return s.rejected(u, ErrWrongPhase)
	}
	s.sched.beginFiring()
	return nil
}

// AttemptAttack fires everything the active player unit can bring to bear
// on the target. Attacking during the movement phase forfeits the move.
func (s *Session) AttemptAttack(unitID, targetID string) error {
	u, err := s.orderedUnit(unitID)
	if err != nil {
		return err
	}
	tgt, ok := s.byID[targetID]
	if !ok {
		return s.rejected(u, fmt.Errorf("%w: %s", ErrUnknownUnit, targetID))
	}
	if err := s.attemptAttack(u, tgt); err != nil {
		return s.rejected(u, err)
	}
	s.sched.beginFiring()
	s.CheckVictory()
	return nil
}

// EndTurn ends the active player unit's turn.
func (s *Session) EndTurn(unitID string) error {
	u, err := s.orderedUnit(unitID)
	if err != nil {
		return err
	}
	s.record(Event{
		Type:    EventTurn,
		Actor:   u.ID,
		Message: fmt.Sprintf("%s ends its turn", u.Name),
	})
	s.finishTurn()
	return nil
}

// orderedUnit validates that unitID may act right now.
func (s *Session) orderedUnit(unitID string) (*Unit, error) {
	if s.resolved {
		return nil, ErrResolved
	}
	u, ok := s.byID[unitID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUnit, unitID)
	}
	if s.sched.active() != unitID {
		return nil, s.rejected(u, ErrNotActive)
	}
	return u, nil
}

// CheckVictory resolves the session once either side has no living units.
// Runs after every attack and at round boundaries.
func (s *Session) CheckVictory() bool {
	if s.resolved {
		return true
	}
	playerAlive, enemyAlive := 0, 0
	for _, u := range s.units {
		if !u.Alive() {
			continue
		}
		if u.Side == SidePlayer {
			playerAlive++
		} else {
			enemyAlive++
		}
	}
	if playerAlive > 0 && enemyAlive > 0 {
		return false
	}
	if enemyAlive == 0 && playerAlive > 0 {
		s.resolve(true, "all enemy units destroyed")
	} else if playerAlive == 0 && enemyAlive > 0 {
		s.resolve(false, "all player units destroyed")
	} else {
		s.resolve(false, "no units fielded")
	}
	return true
}

// ExitEarly cancels the fight immediately: the player forfeits and the
// remaining queue state is discarded.
func (s *Session) ExitEarly() {
	if s.resolved {
		return
	}
	s.resolve(false, "player forfeited")
}

func (s *Session) resolve(victory bool, msg string) {
	s.resolved = true
	s.victory = victory
	s.rounds = s.sched.round
	s.sched.halt()
	s.record(Event{
		Type:    EventResolved,
		Message: fmt.Sprintf("combat resolved, victory=%v: %s", victory, msg),
	})
	s.logger.Info().Bool("victory", victory).Int("rounds", s.rounds).Msg("combat resolved")
}

// ─── Result ─────────────────────────────────────────────────────────────────

type UnitResult struct {
	ID                string  `json:"id"`
	Survived          bool    `json:"survived"`
	FinalArmorPercent float64 `json:"finalArmorPercent"`
	AmmoConsumed      int     `json:"ammoConsumed"`
}

type Result struct {
	Victory       bool         `json:"victory"`
	RoundsElapsed int          `json:"roundsElapsed"`
	UnitResults   []UnitResult `json:"unitResults"`
}

// Result reports the terminal outcome. Only valid once resolved.
func (s *Session) Result() (Result, error) {
	if !s.resolved {
		return Result{}, fmt.Errorf("combat not resolved yet")
	}
	res := Result{
		Victory:       s.victory,
		RoundsElapsed: s.rounds,
	}
	for _, u := range s.units {
		res.UnitResults = append(res.UnitResults, UnitResult{
			ID:                u.ID,
			Survived:          u.Alive(),
			FinalArmorPercent: u.ArmorFraction() * 100,
			AmmoConsumed:      u.AmmoConsumed(),
		})
	}
	return res, nil
}

// ─── Internal helpers ───────────────────────────────────────────────────────

func (s *Session) record(ev Event) {
	ev.Seq = len(s.events) + 1
	ev.Round = s.sched.round
	s.events = append(s.events, ev)
	s.logger.Debug().
		Str("type", string(ev.Type)).
		Str("actor", ev.Actor).
		Msg(ev.Message)
}

// addHeatLogged applies heat and records a shutdown event if the unit
// overflows its heat capacity.
func (s *Session) addHeatLogged(u *Unit, amount int) {
	if amount <= 0 {
		return
	}
	wasDown := u.Shutdown
	u.AddHeat(amount)
	if !wasDown && u.Shutdown {
		s.record(Event{
			Type:    EventShutdown,
			Actor:   u.ID,
			Message: fmt.Sprintf("%s overheats and shuts down", u.Name),
		})
	}
}

func (s *Session) rejected(u *Unit, err error) error {
	s.logger.Warn().Str("unit", u.ID).Err(err).Msg("order rejected")
	return err
}
