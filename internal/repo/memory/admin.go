// Package memory keeps every store in process behind a mutex. It backs the
// default STORAGE_DRIVER=memory mode and the service tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vedx/vedx-site/internal/domain"
	"github.com/vedx/vedx-site/internal/repo"
)

type AdminRepository struct {
	mu     sync.RWMutex
	admins map[string]domain.Admin
}

func NewAdminRepository() *AdminRepository {
	return &AdminRepository{admins: make(map[string]domain.Admin)}
}

func (r *AdminRepository) Create(_ context.Context, admin *domain.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.admins {
		if a.ID == admin.ID || a.Email == admin.Email || a.Identifier == admin.Identifier {
			return repo.ErrDuplicate
		}
	}
	r.admins[admin.ID] = *admin
	return nil
}

func (r *AdminRepository) FindByID(_ context.Context, id string) (*domain.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if a, ok := r.admins[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (r *AdminRepository) FindByEmail(_ context.Context, email string) (*domain.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.admins {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *AdminRepository) FindByIdentifier(_ context.Context, identifier string) (*domain.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.admins {
		if a.Identifier == identifier || strings.EqualFold(a.Email, identifier) {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *AdminRepository) UpdatePassword(_ context.Context, id, passwordHash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.admins[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.PasswordHash = passwordHash
	a.UpdatedAt = at
	r.admins[id] = a
	return nil
}

func (r *AdminRepository) UpdateProfile(_ context.Context, id string, req *domain.UpdateProfileRequest, at time.Time) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.admins[id]
	if !ok {
		return nil, nil
	}
	for otherID, other := range r.admins {
		if otherID != id && strings.EqualFold(other.Email, req.Email) {
			return nil, repo.ErrDuplicate
		}
	}
	a.FirstName = req.FirstName
	a.LastName = req.LastName
	a.Email = req.Email
	a.UpdatedAt = at
	r.admins[id] = a
	return &a, nil
}
