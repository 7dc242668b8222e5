package orchestrator

import (
	"sync"
	"time"
)

// Registry holds live sessions by id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Get returns the session and marks it as seen.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.Touch()
	return s, nil
}

// Remove closes and forgets a session.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Sweep closes and removes sessions not seen within ttl. A session with a
// live stream counts as seen. A ttl of zero removes everything. It returns
// how many were removed.
func (r *Registry) Sweep(now time.Time, ttl time.Duration) int {
	var stale []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if ttl <= 0 || (s.Watchers() == 0 && now.Sub(s.LastSeen()) >= ttl) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
