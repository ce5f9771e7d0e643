package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedx/vedx-site/internal/domain"
)

// SessionRepoImpl is the session registry used when postgres is the store and no
// redis is configured.
type SessionRepoImpl struct {
	pool *pgxpool.Pool
	Now  func() time.Time
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepoImpl {
	return &SessionRepoImpl{pool: pool, Now: time.Now}
}

func (r *SessionRepoImpl) Create(ctx context.Context, s *domain.Session) error {
	const q = `INSERT INTO admin_sessions (id, admin_id, created_at, expires_at) VALUES ($1,$2,$3,$4)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, s.ID, s.AdminID, s.CreatedAt, s.ExpiresAt)
	return err
}

func (r *SessionRepoImpl) Exists(ctx context.Context, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM admin_sessions WHERE id=$1 AND expires_at > $2)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var ok bool
	err := r.pool.QueryRow(ctx, q, id, r.Now()).Scan(&ok)
	return ok, err
}

func (r *SessionRepoImpl) Revoke(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, `DELETE FROM admin_sessions WHERE id=$1`, id)
	return err
}

func (r *SessionRepoImpl) RevokeAll(ctx context.Context, adminID, except string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.pool.Exec(ctx, `DELETE FROM admin_sessions WHERE admin_id=$1 AND id<>$2`, adminID, except)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
