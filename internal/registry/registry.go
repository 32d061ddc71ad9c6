// Package registry holds the in-memory set of open timer sessions. It maps
// each user to at most one session and serialises mutations per user.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/alexanderramin/timekeep/internal/domain"
)

// Source lists persisted sessions when the registry is rebuilt on boot.
type Source interface {
	List(ctx context.Context) ([]*domain.TimerSession, error)
}

// Registry tracks open sessions. Published records are never modified in
// place; a mutation publishes a whole new record, so readers take no user
// lock and always observe a complete session.
type Registry struct {
	mu        sync.RWMutex
	byUser    map[string]string
	bySession map[string]*domain.TimerSession

	locksMu sync.Mutex
	locks   map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		byUser:    make(map[string]string),
		bySession: make(map[string]*domain.TimerSession),
		locks:     make(map[string]*userLock),
	}
}

// WithUserLock runs fn while holding userID's exclusive lock. Different users
// never contend. The lock entry is dropped once no goroutine holds or waits
// on it.
func (r *Registry) WithUserLock(userID string, fn func() error) error {
	l := r.acquire(userID)
	l.mu.Lock()
	defer r.release(userID, l)
	return fn()
}

func (r *Registry) acquire(userID string) *userLock {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	l, ok := r.locks[userID]
	if !ok {
		l = &userLock{}
		r.locks[userID] = l
	}
	l.refs++
	return l
}

func (r *Registry) release(userID string, l *userLock) {
	l.mu.Unlock()
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(r.locks, userID)
	}
}

// lockCount reports how many per-user lock entries are live.
func (r *Registry) lockCount() int {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	return len(r.locks)
}

// RegisterStart occupies the user's slot with s. It fails with
// domain.ErrConflict when the user already has a session, including one that
// is closed but still waiting for its log to be stored.
func (r *Registry) RegisterStart(s *domain.TimerSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byUser[s.UserID]; ok {
		return fmt.Errorf("user %s already has session %s: %w", s.UserID, existing, domain.ErrConflict)
	}
	r.byUser[s.UserID] = s.ID
	r.bySession[s.ID] = s.Clone()
	return nil
}

// Replace publishes a new version of an already registered session.
func (r *Registry) Replace(s *domain.TimerSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.bySession[s.ID]
	if !ok {
		return fmt.Errorf("session %s: %w", s.ID, domain.ErrNotFound)
	}
	if cur.UserID != s.UserID {
		return fmt.Errorf("session %s cannot change owner: %w", s.ID, domain.ErrInvalidState)
	}
	r.bySession[s.ID] = s.Clone()
	return nil
}

// Adopt publishes s as its user's session, dropping any other session the
// registry held for that user. It brings the registry in line with a row
// another process wrote to the durable store.
func (r *Registry) Adopt(s *domain.TimerSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byUser[s.UserID]; ok && old != s.ID {
		delete(r.bySession, old)
	}
	r.byUser[s.UserID] = s.ID
	r.bySession[s.ID] = s.Clone()
}

// Remove frees the session's user slot. Removing an unknown session is a no-op.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.bySession[sessionID]
	if !ok {
		return
	}
	delete(r.bySession, sessionID)
	if r.byUser[s.UserID] == sessionID {
		delete(r.byUser, s.UserID)
	}
}

// LookupByUser returns a copy of the user's session, if any.
func (r *Registry) LookupByUser(userID string) (*domain.TimerSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUser[userID]
	if !ok {
		return nil, false
	}
	return r.bySession[id].Clone(), true
}

// LookupBySession returns a copy of the session, if registered.
func (r *Registry) LookupBySession(sessionID string) (*domain.TimerSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.bySession[sessionID]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Snapshot returns copies of every registered session ordered by user ID.
func (r *Registry) Snapshot() []*domain.TimerSession {
	r.mu.RLock()
	out := make([]*domain.TimerSession, 0, len(r.bySession))
	for _, s := range r.bySession {
		out = append(out, s.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UserID < out[j].UserID
	})
	return out
}

// Pending returns the sessions that are closed but whose log has not been
// stored yet.
func (r *Registry) Pending() []*domain.TimerSession {
	var out []*domain.TimerSession
	for _, s := range r.Snapshot() {
		if s.IsPendingLog() {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of occupied user slots.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// Restore replaces the registry content with the sessions listed by src.
// Running, paused and closed-pending sessions are kept; anything else is
// skipped.
func (r *Registry) Restore(ctx context.Context, src Source) (int, error) {
	sessions, err := src.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("restoring registry: %w", err)
	}

	byUser := make(map[string]string, len(sessions))
	bySession := make(map[string]*domain.TimerSession, len(sessions))
	for _, s := range sessions {
		if !s.IsActive() && !s.IsPendingLog() {
			continue
		}
		if existing, ok := byUser[s.UserID]; ok {
			return 0, fmt.Errorf("restoring registry: user %s has sessions %s and %s: %w",
				s.UserID, existing, s.ID, domain.ErrConflict)
		}
		byUser[s.UserID] = s.ID
		bySession[s.ID] = s.Clone()
	}

	r.mu.Lock()
	r.byUser = byUser
	r.bySession = bySession
	r.mu.Unlock()
	return len(byUser), nil
}
