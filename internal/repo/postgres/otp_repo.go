package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedx/vedx-site/internal/domain"
)

// OTPRepoImpl keeps one row per email. State changes are conditional updates so
// that concurrent verify or reset calls have exactly one winner.
type OTPRepoImpl struct{ pool *pgxpool.Pool }

func NewOTPRepo(pool *pgxpool.Pool) *OTPRepoImpl { return &OTPRepoImpl{pool: pool} }

func (r *OTPRepoImpl) Replace(ctx context.Context, c *domain.OTPChallenge) error {
	const q = `
INSERT INTO otp_challenges (id, email, code_hash, status, attempts, created_at, expires_at, verified_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NULL)
ON CONFLICT (email) DO UPDATE
SET id=EXCLUDED.id,
    code_hash=EXCLUDED.code_hash,
    status=EXCLUDED.status,
    attempts=EXCLUDED.attempts,
    created_at=EXCLUDED.created_at,
    expires_at=EXCLUDED.expires_at,
    verified_at=NULL`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, c.ID, c.Email, c.CodeHash, string(c.Status), c.Attempts, c.CreatedAt, c.ExpiresAt)
	return err
}

func (r *OTPRepoImpl) FindByEmail(ctx context.Context, email string) (*domain.OTPChallenge, error) {
	const q = `
SELECT id, email, code_hash, status, attempts, created_at, expires_at, verified_at
FROM otp_challenges
WHERE email=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		c      domain.OTPChallenge
		status string
	)
	err := r.pool.QueryRow(ctx, q, email).Scan(&c.ID, &c.Email, &c.CodeHash, &status, &c.Attempts, &c.CreatedAt, &c.ExpiresAt, &c.VerifiedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Status = domain.OTPStatus(status)
	return &c, nil
}

func (r *OTPRepoImpl) ReserveAttempt(ctx context.Context, id string, max int) (bool, error) {
	const q = `
UPDATE otp_challenges
SET attempts=attempts+1
WHERE id=$1 AND ($2 <= 0 OR attempts < $2)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.pool.Exec(ctx, q, id, max)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OTPRepoImpl) ReleaseAttempt(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, `UPDATE otp_challenges SET attempts=attempts-1 WHERE id=$1 AND attempts > 0`, id)
	return err
}

func (r *OTPRepoImpl) MarkVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	const q = `
UPDATE otp_challenges
SET status='verified', verified_at=$2
WHERE id=$1 AND status='pending'`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.pool.Exec(ctx, q, id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OTPRepoImpl) DeleteVerified(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.pool.Exec(ctx, `DELETE FROM otp_challenges WHERE id=$1 AND status='verified'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OTPRepoImpl) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tag, err := r.pool.Exec(ctx, `DELETE FROM otp_challenges WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
