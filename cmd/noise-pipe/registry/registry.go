// Package registry tracks the sessions a noise-pipe process has open, so a
// listener handling multiple concurrent dials can answer "what's
// connected" without threading session state through the transport code.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session describes one handshake-to-transport session the demo process is
// participating in.
type Session struct {
	ID         uuid.UUID
	RemoteAddr string
	Initiator  bool
	Protocol   string
	StartedAt  time.Time

	// ChannelBinding is the completed handshake's transcript hash, useful
	// for logging and for asserting two sessions agree on it in tests.
	ChannelBinding []byte
}

// Registry is a concurrency-safe table of in-flight and completed sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*Session)}
}

// Open registers a new session and returns its assigned ID.
func (r *Registry) Open(remoteAddr string, initiator bool, protocol string) uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &Session{
		ID:         id,
		RemoteAddr: remoteAddr,
		Initiator:  initiator,
		Protocol:   protocol,
		StartedAt:  time.Now(),
	}
	return id
}

// Complete records the channel-binding token for a session once its
// handshake has finished.
func (r *Registry) Complete(id uuid.UUID, channelBinding []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.ChannelBinding = append([]byte(nil), channelBinding...)
	}
}

// Close removes a session from the table.
func (r *Registry) Close(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get returns the session for id, if still open.
func (r *Registry) Get(id uuid.UUID) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// List returns a snapshot of every open session.
func (r *Registry) List() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out
}
