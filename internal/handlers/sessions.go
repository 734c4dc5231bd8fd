package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dgrieve/ironlance/internal/engine"
	"github.com/dgrieve/ironlance/internal/hexmap"
	"github.com/dgrieve/ironlance/internal/store"
)

// SessionHandler serves the combat session API. All engine access goes
// through the registry entry's lock.
type SessionHandler struct {
	Registry *Registry
	Store    *store.Store
	Logger   zerolog.Logger
}

type createRequest struct {
	Seed      uint64            `json:"seed"`
	MapRadius int               `json:"mapRadius"`
	MaxRounds int               `json:"maxRounds"`
	Player    []engine.UnitSpec `json:"player"`
	Enemy     []engine.UnitSpec `json:"enemy"`
}

// Create starts a new combat session from roster and mission input.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s := engine.New(engine.Config{
		MapRadius: req.MapRadius,
		MaxRounds: req.MaxRounds,
		Seed:      req.Seed,
		Logger:    h.Logger,
	}, req.Player, req.Enemy)
	e := h.Registry.Add(s)

	e.mu.Lock()
	h.persistIfResolved(e)
	snap := s.Snapshot()
	e.mu.Unlock()

	h.Logger.Info().Str("session", s.ID()).Int("units", len(snap.Units)).Msg("session created")
	writeJSON(w, http.StatusCreated, snap)
}

// Get returns the current session snapshot.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	snap := e.Session.Snapshot()
	e.mu.Unlock()
	writeJSON(w, http.StatusOK, snap)
}

type advanceResponse struct {
	AwaitingOrders bool            `json:"awaitingOrders"`
	State          engine.Snapshot `json:"state"`
}

// Advance runs the next engine step (one full AI turn, or bookkeeping).
func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.Session.Advance()
	awaiting := errors.Is(err, engine.ErrAwaitingOrders)
	if err != nil && !awaiting && !errors.Is(err, engine.ErrResolved) {
		h.writeEngineError(w, err)
		return
	}
	e.Recorder.Observe(e.Session)
	h.persistIfResolved(e)
	writeJSON(w, http.StatusOK, advanceResponse{
		AwaitingOrders: awaiting,
		State:          e.Session.Snapshot(),
	})
}

type moveRequest struct {
	UnitID string `json:"unitId"`
	Q      int    `json:"q"`
	R      int    `json:"r"`
}

// Move orders the active player unit to a destination hex.
func (h *SessionHandler) Move(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.Session.AttemptMove(req.UnitID, hexmap.Hex{Q: req.Q, R: req.R}); err != nil {
		h.writeEngineError(w, err)
		return
	}
	e.Recorder.Observe(e.Session)
	writeJSON(w, http.StatusOK, e.Session.Snapshot())
}

// SkipMove forfeits the active player unit's movement phase.
func (h *SessionHandler) SkipMove(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.Session.SkipMove(req.UnitID); err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Session.Snapshot())
}

type attackRequest struct {
	UnitID   string `json:"unitId"`
	TargetID string `json:"targetId"`
}

// Attack orders the active player unit to fire at a target.
func (h *SessionHandler) Attack(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	var req attackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.Session.AttemptAttack(req.UnitID, req.TargetID); err != nil {
		h.writeEngineError(w, err)
		return
	}
	e.Recorder.Observe(e.Session)
	h.persistIfResolved(e)
	writeJSON(w, http.StatusOK, e.Session.Snapshot())
}

type endTurnRequest struct {
	UnitID string `json:"unitId"`
}

// EndTurn ends the active player unit's turn.
func (h *SessionHandler) EndTurn(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	var req endTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.Session.EndTurn(req.UnitID); err != nil {
		h.writeEngineError(w, err)
		return
	}
	e.Recorder.Observe(e.Session)
	h.persistIfResolved(e)
	writeJSON(w, http.StatusOK, e.Session.Snapshot())
}

// Forfeit cancels the fight immediately.
func (h *SessionHandler) Forfeit(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Session.ExitEarly()
	h.persistIfResolved(e)
	writeJSON(w, http.StatusOK, e.Session.Snapshot())
}

// Events returns combat-log events after the given sequence number.
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	since := 0
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid since parameter", http.StatusBadRequest)
			return
		}
		since = n
	}
	e.mu.Lock()
	events := e.Session.Events(since)
	e.mu.Unlock()
	if events == nil {
		events = []engine.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetReplay serves a stored replay as JSON.
func (h *SessionHandler) GetReplay(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	raw, err := h.Store.LoadReplay(id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "no replay available", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error().Err(err).Str("session", id).Msg("load replay")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(raw)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (h *SessionHandler) entry(w http.ResponseWriter, r *http.Request) (*Entry, bool) {
	id := r.PathValue("id")
	e, ok := h.Registry.Get(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return e, true
}

// persistIfResolved flushes the replay and result to SQLite exactly once.
// Caller holds the entry lock.
func (h *SessionHandler) persistIfResolved(e *Entry) {
	done, _ := e.Session.Resolved()
	if !done || e.persisted || h.Store == nil {
		return
	}
	e.persisted = true

	data, err := e.Recorder.Finish(e.Session)
	if err != nil {
		h.Logger.Error().Err(err).Msg("finish replay")
		return
	}
	raw, err := data.ToJSON()
	if err != nil {
		h.Logger.Error().Err(err).Msg("encode replay")
		return
	}
	id := e.Session.ID()
	if err := h.Store.SaveReplay(id, raw); err != nil {
		h.Logger.Error().Err(err).Str("session", id).Msg("save replay")
	}
	if res, err := e.Session.Result(); err == nil {
		if err := h.Store.SaveResult(id, res); err != nil {
			h.Logger.Error().Err(err).Str("session", id).Msg("save result")
		}
	}
}

func (h *SessionHandler) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusConflict
	if errors.Is(err, engine.ErrUnknownUnit) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
