package exam

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionNotFound indicates the requested session does not exist or
// belongs to another user. The registry never discloses which.
var ErrSessionNotFound = errors.New("exam session not found")

// Registry holds live exam sessions in memory, keyed by session ID. Sessions
// are ephemeral; a restart loses them, which is acceptable because nothing
// about an exam outlives the exam itself.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	logger   *slog.Logger
}

// NewRegistry creates an empty session registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		logger:   logger.With(slog.String("component", "exam_registry")),
	}
}

// Create registers a fresh session for the given user and returns it.
func (r *Registry) Create(userID uuid.UUID) *Session {
	session := NewSession(userID)

	r.mu.Lock()
	r.sessions[session.ID()] = session
	r.mu.Unlock()

	r.logger.Debug("exam session created",
		slog.String("session_id", session.ID().String()),
		slog.String("user_id", userID.String()))
	return session
}

// Get returns the session with the given ID if it belongs to the given user.
// A session owned by someone else is reported as not found so session IDs
// cannot be probed across users.
func (r *Registry) Get(id, userID uuid.UUID) (*Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok || session.UserID() != userID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Remove deletes the session with the given ID if it belongs to the given
// user.
func (r *Registry) Remove(id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok || session.UserID() != userID {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Sweep drops every finished session and returns how many were removed.
// Summaries must be read before the sweep that collects the session.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, session := range r.sessions {
		if session.Status() == StatusFinished {
			delete(r.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		r.logger.Debug("swept finished exam sessions", slog.Int("removed", removed))
	}
	return removed
}

// Len reports how many sessions the registry currently holds.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
