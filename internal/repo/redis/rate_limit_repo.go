package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vedx/vedx-site/internal/utils"
)

const rateLimitPrefix = "vedx:ratelimit:"

// RateLimitRepo is a fixed-window counter: the first hit in a window sets the expiry.
type RateLimitRepo struct {
	client goredis.Cmdable
}

func NewRateLimitRepo(client goredis.Cmdable) *RateLimitRepo {
	return &RateLimitRepo{client: client}
}

func (r *RateLimitRepo) CheckRateLimit(ctx context.Context, key string, requests int, window time.Duration) (bool, error) {
	k := rateLimitPrefix + utils.HashKey(key)
	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, k, window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(requests), nil
}
