package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(1024 * 1024)

	_, found, err := c.Get(ctx, "hero")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "hero", []byte(`{"title":"x"}`), time.Minute))
	v, found, err := c.Get(ctx, "hero")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"title":"x"}`, string(v))

	require.NoError(t, c.Delete(ctx, "hero", "missing"))
	_, found, _ = c.Get(ctx, "hero")
	assert.False(t, found)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, "vedx:content:")

	mock.ExpectGet("vedx:content:hero").RedisNil()
	mock.ExpectSet("vedx:content:hero", []byte("v"), time.Minute).SetVal("OK")
	mock.ExpectGet("vedx:content:hero").SetVal("v")
	mock.ExpectDel("vedx:content:hero", "vedx:content:faqs").SetVal(1)
	mock.ExpectGet("vedx:content:broken").SetErr(errors.New("conn refused"))

	_, found, err := c.Get(ctx, "hero")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "hero", []byte("v"), time.Minute))

	v, found, err := c.Get(ctx, "hero")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", string(v))

	require.NoError(t, c.Delete(ctx, "hero", "faqs"))

	_, _, err = c.Get(ctx, "broken")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
