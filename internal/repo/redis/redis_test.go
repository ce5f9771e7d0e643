package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedx/vedx-site/internal/domain"
	"github.com/vedx/vedx-site/internal/repo"
	"github.com/vedx/vedx-site/internal/utils"
)

var (
	_ repo.SessionRepository   = (*SessionRepo)(nil)
	_ repo.RateLimitRepository = (*RateLimitRepo)(nil)
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestSessionRepo_Create(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewSessionRepo(db)
	r.Now = func() time.Time { return now }

	mock.ExpectSet("vedx:session:s1", "a1", time.Hour).SetVal("OK")
	mock.ExpectSAdd("vedx:admin-sessions:a1", "s1").SetVal(1)
	mock.ExpectExpire("vedx:admin-sessions:a1", time.Hour).SetVal(true)

	err := r.Create(context.Background(), &domain.Session{ID: "s1", AdminID: "a1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_Exists(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewSessionRepo(db)

	mock.ExpectExists("vedx:session:s1").SetVal(1)
	mock.ExpectExists("vedx:session:gone").SetVal(0)

	ok, err := r.Exists(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Exists(context.Background(), "gone")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_Revoke(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewSessionRepo(db)

	mock.ExpectGet("vedx:session:s1").SetVal("a1")
	mock.ExpectDel("vedx:session:s1").SetVal(1)
	mock.ExpectSRem("vedx:admin-sessions:a1", "s1").SetVal(1)
	mock.ExpectGet("vedx:session:missing").RedisNil()

	require.NoError(t, r.Revoke(context.Background(), "s1"))
	require.NoError(t, r.Revoke(context.Background(), "missing"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_RevokeAllKeepsCurrent(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewSessionRepo(db)

	mock.ExpectSMembers("vedx:admin-sessions:a1").SetVal([]string{"s1", "s2", "s3"})
	mock.ExpectDel("vedx:session:s1", "vedx:session:s3").SetVal(2)
	mock.ExpectSRem("vedx:admin-sessions:a1", "s1", "s3").SetVal(2)

	n, err := r.RevokeAll(context.Background(), "a1", "s2")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_RevokeAllNothingToDo(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewSessionRepo(db)

	mock.ExpectSMembers("vedx:admin-sessions:a1").SetVal([]string{"s2"})

	n, err := r.RevokeAll(context.Background(), "a1", "s2")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimitRepo(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRateLimitRepo(db)
	key := "vedx:ratelimit:" + utils.HashKey("otp:admin@vedx.com")

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, 10*time.Minute).SetVal(true)
	mock.ExpectIncr(key).SetVal(3)
	mock.ExpectIncr(key).SetVal(4)

	ctx := context.Background()
	ok, err := r.CheckRateLimit(ctx, "otp:admin@vedx.com", 3, 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = r.CheckRateLimit(ctx, "otp:admin@vedx.com", 3, 10*time.Minute)
	assert.True(t, ok)

	ok, _ = r.CheckRateLimit(ctx, "otp:admin@vedx.com", 3, 10*time.Minute)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
