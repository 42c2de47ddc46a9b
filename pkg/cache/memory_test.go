package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestCache() (*MemoryCache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	c := NewMemoryCache()
	c.now = clock.Now
	return c, clock
}

func TestMemoryCache_SetGetExpire(t *testing.T) {
	c, clock := newTestCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", map[string]int{"seats": 3}, time.Minute))

	var got map[string]int
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, 3, got["seats"])

	clock.now = clock.now.Add(time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestMemoryCache_ZeroExpirationNeverExpires(t *testing.T) {
	c, clock := newTestCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	clock.now = clock.now.Add(24 * time.Hour)

	var got string
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "v", got)

	require.NoError(t, c.Delete(ctx, "k"))
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestMemoryCache_SetNXAndCompareAndDelete(t *testing.T) {
	c, clock := newTestCache()
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "lock", "token-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "lock", "token-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.CompareAndDelete(ctx, "lock", "token-b")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.CompareAndDelete(ctx, "lock", "token-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "lock", "token-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	clock.now = clock.now.Add(2 * time.Minute)
	ok, err = c.SetNX(ctx, "lock", "token-c", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock can be taken over")
}

func TestMemoryCache_Incr(t *testing.T) {
	c, clock := newTestCache()
	ctx := context.Background()

	n, err := c.Incr(ctx, "gen", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.Incr(ctx, "gen", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var got int64
	require.NoError(t, c.Get(ctx, "gen", &got))
	assert.Equal(t, int64(2), got)

	clock.now = clock.now.Add(time.Hour)
	n, err = c.Incr(ctx, "gen", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "expired counter starts over")

	require.NoError(t, c.Set(ctx, "word", "seats", 0))
	_, err = c.Incr(ctx, "word", time.Hour)
	assert.Error(t, err)
}
