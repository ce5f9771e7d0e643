package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vedx/vedx-site/internal/domain"
)

// OTPRepository holds at most one challenge per email. All transitions run under
// one lock, which makes MarkVerified and DeleteVerified compare-and-set operations.
type OTPRepository struct {
	mu      sync.Mutex
	byEmail map[string]*domain.OTPChallenge
	byID    map[string]string // id -> email
}

func NewOTPRepository() *OTPRepository {
	return &OTPRepository{
		byEmail: make(map[string]*domain.OTPChallenge),
		byID:    make(map[string]string),
	}
}

func (r *OTPRepository) Replace(_ context.Context, c *domain.OTPChallenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byEmail[c.Email]; ok {
		delete(r.byID, prev.ID)
	}
	stored := *c
	r.byEmail[c.Email] = &stored
	r.byID[c.ID] = c.Email
	return nil
}

func (r *OTPRepository) FindByEmail(_ context.Context, email string) (*domain.OTPChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (r *OTPRepository) ReserveAttempt(_ context.Context, id string, max int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.lookup(id)
	if c == nil || (max > 0 && c.Attempts >= max) {
		return false, nil
	}
	c.Attempts++
	return true, nil
}

func (r *OTPRepository) ReleaseAttempt(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c := r.lookup(id); c != nil && c.Attempts > 0 {
		c.Attempts--
	}
	return nil
}

func (r *OTPRepository) MarkVerified(_ context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.lookup(id)
	if c == nil || c.Status != domain.OTPPending {
		return false, nil
	}
	c.Status = domain.OTPVerified
	verifiedAt := at
	c.VerifiedAt = &verifiedAt
	return true, nil
}

func (r *OTPRepository) DeleteVerified(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.lookup(id)
	if c == nil || c.Status != domain.OTPVerified {
		return false, nil
	}
	delete(r.byEmail, c.Email)
	delete(r.byID, id)
	return true, nil
}

func (r *OTPRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for email, c := range r.byEmail {
		if c.ExpiresAt.Before(before) {
			delete(r.byEmail, email)
			delete(r.byID, c.ID)
			n++
		}
	}
	return n, nil
}

func (r *OTPRepository) lookup(id string) *domain.OTPChallenge {
	email, ok := r.byID[id]
	if !ok {
		return nil
	}
	return r.byEmail[email]
}
