package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedx/vedx-site/internal/domain"
	"github.com/vedx/vedx-site/internal/repo"
)

var (
	_ repo.AdminRepository     = (*AdminRepository)(nil)
	_ repo.OTPRepository       = (*OTPRepository)(nil)
	_ repo.SessionRepository   = (*SessionRepository)(nil)
	_ repo.RateLimitRepository = (*RateLimitRepository)(nil)
	_ repo.ContentRepository   = (*ContentRepository)(nil)
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestAdminRepository(t *testing.T) {
	ctx := context.Background()
	r := NewAdminRepository()

	admin := &domain.Admin{ID: "a1", Identifier: "+919999900000", Email: "admin@vedx.com", PasswordHash: "h1"}
	require.NoError(t, r.Create(ctx, admin))
	assert.ErrorIs(t, r.Create(ctx, &domain.Admin{ID: "a2", Identifier: "other", Email: "admin@vedx.com"}), repo.ErrDuplicate)

	got, err := r.FindByIdentifier(ctx, "+919999900000")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a1", got.ID)

	got, err = r.FindByIdentifier(ctx, "admin@vedx.com")
	require.NoError(t, err)
	require.NotNil(t, got)

	missing, err := r.FindByEmail(ctx, "nobody@vedx.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, r.UpdatePassword(ctx, "a1", "h2", t0))
	got, _ = r.FindByID(ctx, "a1")
	assert.Equal(t, "h2", got.PasswordHash)
	assert.Equal(t, t0, got.UpdatedAt)
	assert.ErrorIs(t, r.UpdatePassword(ctx, "nope", "h", t0), domain.ErrNotFound)

	updated, err := r.UpdateProfile(ctx, "a1", &domain.UpdateProfileRequest{FirstName: "Ved", Email: "ved@vedx.com"}, t0)
	require.NoError(t, err)
	assert.Equal(t, "ved@vedx.com", updated.Email)
	assert.Equal(t, "h2", updated.PasswordHash)
}

func TestOTPRepository_ReplaceDropsPrevious(t *testing.T) {
	ctx := context.Background()
	r := NewOTPRepository()

	require.NoError(t, r.Replace(ctx, &domain.OTPChallenge{ID: "c1", Email: "admin@vedx.com", Status: domain.OTPPending, ExpiresAt: t0.Add(time.Minute)}))
	require.NoError(t, r.Replace(ctx, &domain.OTPChallenge{ID: "c2", Email: "admin@vedx.com", Status: domain.OTPPending, ExpiresAt: t0.Add(time.Minute)}))

	ok, err := r.MarkVerified(ctx, "c1", t0)
	require.NoError(t, err)
	assert.False(t, ok, "replaced challenge must not verify")

	c, err := r.FindByEmail(ctx, "admin@vedx.com")
	require.NoError(t, err)
	assert.Equal(t, "c2", c.ID)
}

func TestOTPRepository_Transitions(t *testing.T) {
	ctx := context.Background()
	r := NewOTPRepository()
	require.NoError(t, r.Replace(ctx, &domain.OTPChallenge{ID: "c1", Email: "admin@vedx.com", Status: domain.OTPPending, ExpiresAt: t0.Add(time.Minute)}))

	for i := 0; i < 2; i++ {
		ok, err := r.ReserveAttempt(ctx, "c1", 5)
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := r.DeleteVerified(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok, "pending challenge cannot be consumed")

	ok, _ = r.MarkVerified(ctx, "c1", t0)
	assert.True(t, ok)
	ok, _ = r.MarkVerified(ctx, "c1", t0)
	assert.False(t, ok)

	c, _ := r.FindByEmail(ctx, "admin@vedx.com")
	assert.Equal(t, 2, c.Attempts)
	assert.True(t, c.IsVerified())
	require.NotNil(t, c.VerifiedAt)

	ok, _ = r.DeleteVerified(ctx, "c1")
	assert.True(t, ok)
	ok, _ = r.DeleteVerified(ctx, "c1")
	assert.False(t, ok)

	c, _ = r.FindByEmail(ctx, "admin@vedx.com")
	assert.Nil(t, c)
}

func TestOTPRepository_ConcurrentMarkVerified(t *testing.T) {
	ctx := context.Background()
	r := NewOTPRepository()
	require.NoError(t, r.Replace(ctx, &domain.OTPChallenge{ID: "c1", Email: "admin@vedx.com", Status: domain.OTPPending, ExpiresAt: t0.Add(time.Minute)}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := r.MarkVerified(ctx, "c1", t0); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestOTPRepository_ReserveAttempt(t *testing.T) {
	ctx := context.Background()
	r := NewOTPRepository()
	require.NoError(t, r.Replace(ctx, &domain.OTPChallenge{ID: "c1", Email: "admin@vedx.com", Status: domain.OTPPending, ExpiresAt: t0.Add(time.Minute)}))

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := r.ReserveAttempt(ctx, "c1", 5); ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(5), granted.Load())

	require.NoError(t, r.ReleaseAttempt(ctx, "c1"))
	ok, _ := r.ReserveAttempt(ctx, "c1", 5)
	assert.True(t, ok, "released attempt can be reserved again")
	ok, _ = r.ReserveAttempt(ctx, "c1", 5)
	assert.False(t, ok)

	ok, _ = r.ReserveAttempt(ctx, "missing", 5)
	assert.False(t, ok)
	ok, _ = r.ReserveAttempt(ctx, "c1", 0)
	assert.True(t, ok, "zero max is unlimited")

	c, _ := r.FindByEmail(ctx, "admin@vedx.com")
	assert.Equal(t, 6, c.Attempts)
}

func TestOTPRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	r := NewOTPRepository()
	_ = r.Replace(ctx, &domain.OTPChallenge{ID: "old", Email: "a@vedx.com", ExpiresAt: t0})
	_ = r.Replace(ctx, &domain.OTPChallenge{ID: "new", Email: "b@vedx.com", ExpiresAt: t0.Add(time.Hour)})

	n, err := r.DeleteExpired(ctx, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	c, _ := r.FindByEmail(ctx, "b@vedx.com")
	assert.NotNil(t, c)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	r := NewSessionRepository()
	now := t0
	r.Now = func() time.Time { return now }

	for _, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, r.Create(ctx, &domain.Session{ID: id, AdminID: "a1", ExpiresAt: t0.Add(time.Hour)}))
	}
	require.NoError(t, r.Create(ctx, &domain.Session{ID: "other", AdminID: "a2", ExpiresAt: t0.Add(time.Hour)}))

	ok, _ := r.Exists(ctx, "s1")
	assert.True(t, ok)

	n, err := r.RevokeAll(ctx, "a1", "s2")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, _ = r.Exists(ctx, "s1")
	assert.False(t, ok)
	ok, _ = r.Exists(ctx, "s2")
	assert.True(t, ok)
	ok, _ = r.Exists(ctx, "other")
	assert.True(t, ok)

	require.NoError(t, r.Revoke(ctx, "s2"))
	ok, _ = r.Exists(ctx, "s2")
	assert.False(t, ok)

	now = t0.Add(2 * time.Hour)
	ok, _ = r.Exists(ctx, "other")
	assert.False(t, ok, "expired sessions are dropped")
}

func TestRateLimitRepository(t *testing.T) {
	ctx := context.Background()
	r := NewRateLimitRepository()
	now := t0
	r.Now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, err := r.CheckRateLimit(ctx, "otp:admin@vedx.com", 3, 10*time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := r.CheckRateLimit(ctx, "otp:admin@vedx.com", 3, 10*time.Minute)
	assert.False(t, ok)

	ok, _ = r.CheckRateLimit(ctx, "otp:other@vedx.com", 3, 10*time.Minute)
	assert.True(t, ok)

	now = t0.Add(10 * time.Minute)
	ok, _ = r.CheckRateLimit(ctx, "otp:admin@vedx.com", 3, 10*time.Minute)
	assert.True(t, ok, "window resets")
}

func TestContentRepository(t *testing.T) {
	ctx := context.Background()
	r := NewContentRepository()

	require.NoError(t, r.Create(ctx, &domain.ContentItem{ID: "b", Kind: domain.KindBlogs, Data: []byte(`{}`), CreatedAt: t0.Add(time.Second)}))
	require.NoError(t, r.Create(ctx, &domain.ContentItem{ID: "a", Kind: domain.KindBlogs, Data: []byte(`{}`), CreatedAt: t0}))
	assert.ErrorIs(t, r.Create(ctx, &domain.ContentItem{ID: "a", Kind: domain.KindBlogs}), repo.ErrDuplicate)

	items, err := r.List(ctx, domain.KindBlogs)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)

	empty, err := r.List(ctx, domain.KindBanners)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	ok, err := r.Update(ctx, &domain.ContentItem{ID: "a", Kind: domain.KindBlogs, Data: []byte(`{"title":"x"}`), UpdatedAt: t0.Add(time.Hour)})
	require.NoError(t, err)
	assert.True(t, ok)
	got, _ := r.Get(ctx, domain.KindBlogs, "a")
	assert.Equal(t, t0, got.CreatedAt)
	assert.JSONEq(t, `{"title":"x"}`, string(got.Data))

	ok, _ = r.Update(ctx, &domain.ContentItem{ID: "zzz", Kind: domain.KindBlogs})
	assert.False(t, ok)

	ok, _ = r.Delete(ctx, domain.KindBlogs, "a")
	assert.True(t, ok)
	ok, _ = r.Delete(ctx, domain.KindBlogs, "a")
	assert.False(t, ok)
	got, _ = r.Get(ctx, domain.KindBlogs, "a")
	assert.Nil(t, got)
}
