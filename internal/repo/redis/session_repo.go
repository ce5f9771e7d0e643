// Package redis keeps the short-lived auth state (sessions and rate-limit
// counters) in redis so several API instances share it.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vedx/vedx-site/internal/domain"
)

const (
	sessionPrefix      = "vedx:session:"
	adminSessionPrefix = "vedx:admin-sessions:"
)

// SessionRepo stores each session as a key holding the admin id with the
// session's remaining lifetime as TTL, plus a per-admin set of session ids.
type SessionRepo struct {
	client goredis.Cmdable
	Now    func() time.Time
}

func NewSessionRepo(client goredis.Cmdable) *SessionRepo {
	return &SessionRepo{client: client, Now: time.Now}
}

func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	ttl := s.ExpiresAt.Sub(r.Now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, sessionPrefix+s.ID, s.AdminID, ttl).Err(); err != nil {
		return err
	}
	setKey := adminSessionPrefix + s.AdminID
	if err := r.client.SAdd(ctx, setKey, s.ID).Err(); err != nil {
		return err
	}
	// The set lives as long as its newest session.
	return r.client.Expire(ctx, setKey, ttl).Err()
}

func (r *SessionRepo) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, sessionPrefix+id).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *SessionRepo) Revoke(ctx context.Context, id string) error {
	adminID, err := r.client.Get(ctx, sessionPrefix+id).Result()
	if errors.Is(err, goredis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.client.Del(ctx, sessionPrefix+id).Err(); err != nil {
		return err
	}
	return r.client.SRem(ctx, adminSessionPrefix+adminID, id).Err()
}

func (r *SessionRepo) RevokeAll(ctx context.Context, adminID, except string) (int, error) {
	setKey := adminSessionPrefix + adminID
	ids, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return 0, err
	}

	var (
		keys    []string
		members []interface{}
	)
	for _, id := range ids {
		if id == except {
			continue
		}
		keys = append(keys, sessionPrefix+id)
		members = append(members, id)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	n, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, err
	}
	if err := r.client.SRem(ctx, setKey, members...).Err(); err != nil {
		return 0, err
	}
	return int(n), nil
}
