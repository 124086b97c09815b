package core

import "sync"

// Registry tracks the sessions currently connected, keyed by session ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Register adds a session. A session already registered under the same ID
// is replaced and returned so the caller can close it.
func (r *Registry) Register(s *Session) (replaced *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, exists := r.sessions[s.ID]; exists && prev != s {
		replaced = prev
	}
	r.sessions[s.ID] = s
	return replaced
}

// Unregister removes s if it is the registered session for its ID.
// Returns true if removed.
func (r *Registry) Unregister(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, exists := r.sessions[s.ID]; !exists || cur != s {
		return false
	}
	delete(r.sessions, s.ID)
	return true
}

// Active returns a snapshot of registered sessions safe to iterate while
// membership changes.
func (r *Registry) Active() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
