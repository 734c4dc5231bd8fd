package replay

import (
	"encoding/json"

	"github.com/dgrieve/ironlance/internal/engine"
	"github.com/dgrieve/ironlance/internal/hexmap"
)

// ─── Replay data ────────────────────────────────────────────────────────────
// A replay is the battlefield, a state snapshot at every round boundary,
// the full event stream, and the terminal result. Enough for a viewer to
// play the fight back without the engine.

type Cell struct {
	Q         int    `json:"q"`
	R         int    `json:"r"`
	Elevation int    `json:"elevation"`
	Terrain   string `json:"terrain,omitempty"`
}

type Data struct {
	SessionID string            `json:"sessionId"`
	MapRadius int               `json:"mapRadius"`
	Cells     []Cell            `json:"cells"`
	Rounds    []engine.Snapshot `json:"rounds"`
	Events    []engine.Event    `json:"events"`
	Result    engine.Result     `json:"result"`
}

func (d *Data) ToJSON() ([]byte, error) {
	return json.Marshal(d)
}

func FromJSON(raw []byte) (*Data, error) {
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ─── Recorder ───────────────────────────────────────────────────────────────

// Recorder accumulates round snapshots while a caller drives a session.
type Recorder struct {
	data      *Data
	lastRound int
}

// NewRecorder captures the battlefield and the opening state.
func NewRecorder(s *engine.Session) *Recorder {
	r := &Recorder{
		data: &Data{
			SessionID: s.ID(),
			MapRadius: s.Board().Radius(),
			Cells:     mapCells(s.Board()),
		},
	}
	r.Observe(s)
	return r
}

// Observe snapshots the session if a new round has started since the last
// call. Call it after every Advance step.
func (r *Recorder) Observe(s *engine.Session) {
	round := s.Round()
	if round == r.lastRound {
		return
	}
	r.lastRound = round
	r.data.Rounds = append(r.data.Rounds, s.Snapshot())
}

// Finish closes the recording with the event stream and final result.
// The session must be resolved.
func (r *Recorder) Finish(s *engine.Session) (*Data, error) {
	res, err := s.Result()
	if err != nil {
		return nil, err
	}
	r.data.Rounds = append(r.data.Rounds, s.Snapshot())
	r.data.Events = s.Events(0)
	r.data.Result = res
	return r.data, nil
}

func mapCells(m *hexmap.Map) []Cell {
	var cells []Cell
	for _, c := range m.Cells() {
		out := Cell{Q: c.Coord.Q, R: c.Coord.R, Elevation: c.Elevation}
		if c.Terrain != hexmap.TerrainClear {
			out.Terrain = c.Terrain.String()
		}
		cells = append(cells, out)
	}
	return cells
}
