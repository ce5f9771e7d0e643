package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedx/vedx-site/internal/utils"
)

// RateLimitRepoImpl counts hits per key in a fixed window using a single upsert.
type RateLimitRepoImpl struct {
	pool *pgxpool.Pool
	Now  func() time.Time
}

func NewRateLimitRepo(pool *pgxpool.Pool) *RateLimitRepoImpl {
	return &RateLimitRepoImpl{pool: pool, Now: time.Now}
}

func (r *RateLimitRepoImpl) CheckRateLimit(ctx context.Context, key string, requests int, window time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	now := r.Now()
	windowStart := now.Add(-window)

	const q = `
INSERT INTO rate_limits (key, count, window_start, expires_at)
VALUES ($1, 1, $2, $3)
ON CONFLICT (key) DO UPDATE SET
	count = CASE
		WHEN rate_limits.window_start <= $4 THEN 1
		ELSE rate_limits.count + 1
	END,
	window_start = CASE
		WHEN rate_limits.window_start <= $4 THEN $2
		ELSE rate_limits.window_start
	END,
	expires_at = $3
RETURNING count`

	var count int
	err := r.pool.QueryRow(ctx, q, utils.HashKey(key), now, now.Add(window), windowStart).Scan(&count)
	if err != nil {
		return false, err
	}
	return count <= requests, nil
}
