package engine

// ─── State snapshots ────────────────────────────────────────────────────────
// Point-in-time views for the API layer and replay recording. Snapshots are
// plain data; mutating one never touches the session.

type UnitSnapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Side      string `json:"side"`
	Q         int    `json:"q"`
	R         int    `json:"r"`
	Armor     int    `json:"armor"`
	ArmorMax  int    `json:"armorMax"`
	Heat      int    `json:"heat"`
	HeatMax   int    `json:"heatMax"`
	HasMoved  bool   `json:"hasMoved,omitempty"`
	HasFired  bool   `json:"hasFired,omitempty"`
	Shutdown  bool   `json:"shutdown,omitempty"`
	Destroyed bool   `json:"destroyed,omitempty"`
}

type Snapshot struct {
	ID       string         `json:"id"`
	Round    int            `json:"round"`
	Phase    string         `json:"phase"`
	Active   string         `json:"active,omitempty"`
	Resolved bool           `json:"resolved"`
	Victory  bool           `json:"victory"`
	Units    []UnitSnapshot `json:"units"`
}

func snapshotUnit(u *Unit) UnitSnapshot {
	return UnitSnapshot{
		ID:        u.ID,
		Name:      u.Name,
		Side:      u.Side.String(),
		Q:         u.Pos.Q,
		R:         u.Pos.R,
		Armor:     u.Armor,
		ArmorMax:  u.ArmorMax,
		Heat:      u.Heat,
		HeatMax:   u.HeatMax,
		HasMoved:  u.HasMoved,
		HasFired:  u.HasFired,
		Shutdown:  u.Shutdown,
		Destroyed: u.Destroyed,
	}
}

// Snapshot captures the full observable session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:       s.id,
		Round:    s.sched.round,
		Phase:    s.sched.phase.String(),
		Active:   s.sched.active(),
		Resolved: s.resolved,
		Victory:  s.victory,
	}
	for _, u := range s.units {
		snap.Units = append(snap.Units, snapshotUnit(u))
	}
	return snap
}
