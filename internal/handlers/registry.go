package handlers

import (
	"sync"

	"github.com/dgrieve/ironlance/internal/engine"
	"github.com/dgrieve/ironlance/internal/replay"
)

// Entry is one live session plus its replay recorder. The engine is not
// goroutine-safe, so every request locks the entry before touching it.
type Entry struct {
	mu        sync.Mutex
	Session   *engine.Session
	Recorder  *replay.Recorder
	persisted bool
}

// Registry holds in-flight sessions by id.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

func (r *Registry) Add(s *engine.Session) *Entry {
	e := &Entry{
		Session:  s,
		Recorder: replay.NewRecorder(s),
	}
	r.mu.Lock()
	r.entries[s.ID()] = e
	r.mu.Unlock()
	return e
}

func (r *Registry) Get(id string) (*Entry, bool) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	return e, ok
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}
