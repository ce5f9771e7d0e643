package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedx/vedx-site/internal/domain"
)

type ContentRepoImpl struct{ pool *pgxpool.Pool }

func NewContentRepo(pool *pgxpool.Pool) *ContentRepoImpl { return &ContentRepoImpl{pool: pool} }

func (r *ContentRepoImpl) List(ctx context.Context, kind domain.ContentKind) ([]domain.ContentItem, error) {
	const q = `
SELECT id, kind, data, created_at, updated_at
FROM content_items
WHERE kind=$1
ORDER BY created_at, id`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.ContentItem, 0)
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *ContentRepoImpl) Get(ctx context.Context, kind domain.ContentKind, id string) (*domain.ContentItem, error) {
	const q = `SELECT id, kind, data, created_at, updated_at FROM content_items WHERE kind=$1 AND id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	item, err := scanContent(r.pool.QueryRow(ctx, q, string(kind), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

func (r *ContentRepoImpl) Create(ctx context.Context, item *domain.ContentItem) error {
	const q = `
INSERT INTO content_items (id, kind, data, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, item.ID, string(item.Kind), []byte(item.Data), item.CreatedAt, item.UpdatedAt)
	return mapUniqueViolation(err)
}

func (r *ContentRepoImpl) Update(ctx context.Context, item *domain.ContentItem) (bool, error) {
	const q = `UPDATE content_items SET data=$3, updated_at=$4 WHERE kind=$1 AND id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.pool.Exec(ctx, q, string(item.Kind), item.ID, []byte(item.Data), item.UpdatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ContentRepoImpl) Delete(ctx context.Context, kind domain.ContentKind, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.pool.Exec(ctx, `DELETE FROM content_items WHERE kind=$1 AND id=$2`, string(kind), id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanContent(row pgx.Row) (*domain.ContentItem, error) {
	var (
		item domain.ContentItem
		kind string
		data []byte
	)
	if err := row.Scan(&item.ID, &kind, &data, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.Kind = domain.ContentKind(kind)
	item.Data = data
	return &item, nil
}
