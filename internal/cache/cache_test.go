package cache

import (
	"context"
	"os"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghostlounge_backend/pkg/money"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(time.Minute)
	c.now = func() time.Time { return now }

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)

	c.Fill(ctx, 1, c.Version(ctx, 1), money.MustParse("12.34"))
	v, ok := c.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, money.MustParse("12.34"), v)

	c.Invalidate(ctx, 1)
	_, ok = c.Get(ctx, 1)
	assert.False(t, ok)

	c.Fill(ctx, 2, c.Version(ctx, 2), 100)
	now = now.Add(time.Minute)
	_, ok = c.Get(ctx, 2)
	assert.False(t, ok, "expired")
}

func TestMemoryFillAfterInvalidateIsDropped(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	stale := c.Version(ctx, 1)
	c.Invalidate(ctx, 1)
	c.Fill(ctx, 1, stale, money.MustParse("5.00"))
	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)

	c.Fill(ctx, 1, c.Version(ctx, 1), money.MustParse("7.00"))
	v, ok := c.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, money.MustParse("7.00"), v)

	c.Fill(ctx, 3, NoFill, 1)
	_, ok = c.Get(ctx, 3)
	assert.False(t, ok)
}

func TestNopCache(t *testing.T) {
	var c BalanceCache = Nop{}
	c.Fill(context.Background(), 1, c.Version(context.Background(), 1), 5)
	_, ok := c.Get(context.Background(), 1)
	assert.False(t, ok)
}

func TestRedisFailedInvalidateIsNeverServed(t *testing.T) {
	// nothing listens on port 1
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	var failures int
	c := NewRedis(client, "ghostlounge:test:balance:", time.Minute, func(error) { failures++ })
	c.Invalidate(ctx, 7)
	assert.Equal(t, 1, failures)
	assert.True(t, c.isDirty(7))

	assert.Equal(t, NoFill, c.Version(ctx, 7))
	_, ok := c.Get(ctx, 7)
	assert.False(t, ok)
	assert.True(t, c.isDirty(7), "retry failed too")
	assert.False(t, c.isDirty(8))
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("GHOSTLOUNGE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GHOSTLOUNGE_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	c := NewRedis(client, "ghostlounge:test:balance:", time.Minute, func(err error) { t.Error(err) })
	c.Invalidate(ctx, 7)
	_, ok := c.Get(ctx, 7)
	assert.False(t, ok)

	c.Fill(ctx, 7, c.Version(ctx, 7), money.MustParse("-3.50"))
	v, ok := c.Get(ctx, 7)
	require.True(t, ok)
	assert.Equal(t, money.MustParse("-3.50"), v)

	stale := c.Version(ctx, 7)
	c.Invalidate(ctx, 7)
	c.Fill(ctx, 7, stale, money.MustParse("1.00"))
	_, ok = c.Get(ctx, 7)
	assert.False(t, ok)
}
