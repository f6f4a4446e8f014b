package tcpserver

import (
	"sync"
	"sync/atomic"
)

// sessionRegistry tracks the sessions currently being handled and hands out
// monotonically increasing ids starting at 1. Safe for concurrent use.
type sessionRegistry struct {
	lastID   atomic.Uint32
	mu       sync.RWMutex
	sessions map[uint32]TCPServerSession
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[uint32]TCPServerSession)}
}

func (r *sessionRegistry) nextID() uint32 {
	return r.lastID.Add(1)
}

func (r *sessionRegistry) add(session TCPServerSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID()] = session
}

func (r *sessionRegistry) remove(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *sessionRegistry) get(id uint32) (TCPServerSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	return session, ok
}

func (r *sessionRegistry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// closeAll closes every registered session. Sessions stay registered until
// their Handle returns.
func (r *sessionRegistry) closeAll() {
	r.mu.RLock()
	open := make([]TCPServerSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		open = append(open, session)
	}
	r.mu.RUnlock()

	for _, session := range open {
		_ = session.Close()
	}
}
