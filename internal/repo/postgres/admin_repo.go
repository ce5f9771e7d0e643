package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedx/vedx-site/internal/domain"
	"github.com/vedx/vedx-site/internal/repo"
)

const adminColumns = `id, identifier, email, password_hash, first_name, last_name, created_at, updated_at`

type AdminRepoImpl struct{ pool *pgxpool.Pool }

func NewAdminRepo(pool *pgxpool.Pool) *AdminRepoImpl { return &AdminRepoImpl{pool: pool} }

func (r *AdminRepoImpl) Create(ctx context.Context, a *domain.Admin) error {
	const q = `
INSERT INTO admins (` + adminColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, a.ID, a.Identifier, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.CreatedAt, a.UpdatedAt)
	return mapUniqueViolation(err)
}

func (r *AdminRepoImpl) FindByID(ctx context.Context, id string) (*domain.Admin, error) {
	return r.findOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE id=$1`, id)
}

func (r *AdminRepoImpl) FindByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return r.findOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE lower(email)=lower($1)`, email)
}

func (r *AdminRepoImpl) FindByIdentifier(ctx context.Context, identifier string) (*domain.Admin, error) {
	return r.findOne(ctx, `
SELECT `+adminColumns+` FROM admins
WHERE identifier=$1 OR lower(email)=lower($1)
LIMIT 1`, identifier)
}

func (r *AdminRepoImpl) UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	const q = `UPDATE admins SET password_hash=$2, updated_at=$3 WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.pool.Exec(ctx, q, id, passwordHash, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AdminRepoImpl) UpdateProfile(ctx context.Context, id string, req *domain.UpdateProfileRequest, at time.Time) (*domain.Admin, error) {
	const q = `
UPDATE admins SET first_name=$2, last_name=$3, email=$4, updated_at=$5
WHERE id=$1
RETURNING ` + adminColumns
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	a, err := scanAdmin(r.pool.QueryRow(ctx, q, id, req.FirstName, req.LastName, req.Email, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return a, nil
}

func (r *AdminRepoImpl) findOne(ctx context.Context, q string, arg any) (*domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	a, err := scanAdmin(r.pool.QueryRow(ctx, q, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func scanAdmin(row pgx.Row) (*domain.Admin, error) {
	var a domain.Admin
	if err := row.Scan(&a.ID, &a.Identifier, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repo.ErrDuplicate
	}
	return err
}
