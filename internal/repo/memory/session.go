package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vedx/vedx-site/internal/domain"
)

type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	Now      func() time.Time
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]domain.Session),
		Now:      time.Now,
	}
}

func (r *SessionRepository) Create(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID] = *s
	return nil
}

func (r *SessionRepository) Exists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !s.ExpiresAt.After(r.Now()) {
		r.mu.Lock()
		delete(r.sessions, id)
		r.mu.Unlock()
		return false, nil
	}
	return true, nil
}

func (r *SessionRepository) Revoke(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

func (r *SessionRepository) RevokeAll(_ context.Context, adminID, except string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, s := range r.sessions {
		if s.AdminID == adminID && id != except {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}
