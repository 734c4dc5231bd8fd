package engine

import "errors"

// ─── Combat log events ──────────────────────────────────────────────────────
// Every state change appends one event. Presentation layers consume the
// ordered stream; the engine itself never reads it back.

type EventType string

const (
	EventRound     EventType = "round"
	EventTurn      EventType = "turn"
	EventMove      EventType = "move"
	EventJump      EventType = "jump"
	EventFire      EventType = "fire"
	EventHit       EventType = "hit"
	EventMiss      EventType = "miss"
	EventDestroyed EventType = "destroyed"
	EventShutdown  EventType = "shutdown"
	EventRestart   EventType = "restart"
	EventRejected  EventType = "rejected"
	EventWarning   EventType = "warning"
	EventResolved  EventType = "resolved"
)

type Event struct {
	Seq     int       `json:"seq"`
	Round   int       `json:"round"`
	Type    EventType `json:"type"`
	Actor   string    `json:"actor,omitempty"`
	Target  string    `json:"target,omitempty"`
	Weapon  string    `json:"weapon,omitempty"`
	Roll    int       `json:"roll,omitempty"`
	Need    int       `json:"need,omitempty"`
	Damage  int       `json:"damage,omitempty"`
	Message string    `json:"message"`
}

// ─── Rejection reasons ──────────────────────────────────────────────────────
// Invalid orders are rejected as errors with no state change; the session
// never unwinds. Callers match with errors.Is.

var (
	ErrResolved       = errors.New("combat already resolved")
	ErrUnknownUnit    = errors.New("unknown unit")
	ErrNotActive      = errors.New("unit is not the active unit")
	ErrWrongPhase     = errors.New("action not legal in current phase")
	ErrAlreadyMoved   = errors.New("unit has already moved this turn")
	ErrAlreadyFired   = errors.New("unit has already fired this turn")
	ErrShutdown       = errors.New("unit is shut down")
	ErrUnitDestroyed  = errors.New("unit is destroyed")
	ErrTargetDead     = errors.New("target is destroyed")
	ErrInvalidTarget  = errors.New("invalid target")
	ErrNotReachable   = errors.New("destination is not reachable")
	ErrAwaitingOrders = errors.New("awaiting player orders")
)
