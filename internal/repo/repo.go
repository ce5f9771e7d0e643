// Package repo declares the storage contracts shared by the postgres, redis and
// memory backends. Finders return (nil, nil) when nothing matches.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/vedx/vedx-site/internal/domain"
)

// ErrDuplicate reports a unique-key collision such as a second admin with the same email.
var ErrDuplicate = errors.New("duplicate record")

type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) error
	FindByID(ctx context.Context, id string) (*domain.Admin, error)
	FindByEmail(ctx context.Context, email string) (*domain.Admin, error)
	// FindByIdentifier matches either the login identifier or the email.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.Admin, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error
	UpdateProfile(ctx context.Context, id string, req *domain.UpdateProfileRequest, at time.Time) (*domain.Admin, error)
}

type OTPRepository interface {
	// Replace stores c as the only challenge for c.Email, dropping any earlier one.
	Replace(ctx context.Context, c *domain.OTPChallenge) error
	FindByEmail(ctx context.Context, email string) (*domain.OTPChallenge, error)
	// ReserveAttempt counts one code comparison against the challenge. It reports
	// false when the challenge is gone or already has max attempts (max <= 0 is unlimited).
	ReserveAttempt(ctx context.Context, id string, max int) (bool, error)
	// ReleaseAttempt returns an attempt reserved for a code that matched.
	ReleaseAttempt(ctx context.Context, id string) error
	// MarkVerified moves a pending challenge to verified. It reports false when the
	// challenge is gone or no longer pending, so only one caller can win.
	MarkVerified(ctx context.Context, id string, at time.Time) (bool, error)
	// DeleteVerified removes a verified challenge, reporting false if another caller already did.
	DeleteVerified(ctx context.Context, id string) (bool, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) error
	Exists(ctx context.Context, id string) (bool, error)
	Revoke(ctx context.Context, id string) error
	// RevokeAll drops every session of adminID except the one named by except.
	RevokeAll(ctx context.Context, adminID, except string) (int, error)
}

type RateLimitRepository interface {
	// CheckRateLimit counts a hit for key and reports whether it is within requests per window.
	CheckRateLimit(ctx context.Context, key string, requests int, window time.Duration) (bool, error)
}

type ContentRepository interface {
	List(ctx context.Context, kind domain.ContentKind) ([]domain.ContentItem, error)
	Get(ctx context.Context, kind domain.ContentKind, id string) (*domain.ContentItem, error)
	Create(ctx context.Context, item *domain.ContentItem) error
	Update(ctx context.Context, item *domain.ContentItem) (bool, error)
	Delete(ctx context.Context, kind domain.ContentKind, id string) (bool, error)
}
