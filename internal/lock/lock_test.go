package lock

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerExclusive(t *testing.T) {
	l := NewLocalLocker()
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "pc:1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, l.slots, "slots are dropped once unused")
}

func TestLocalLockerKeysIndependentAndTimeout(t *testing.T) {
	l := NewLocalLocker()
	release, err := l.Acquire(context.Background(), "pc:1")
	require.NoError(t, err)

	other, err := l.Acquire(context.Background(), "pc:2")
	require.NoError(t, err)
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "pc:1")
	assert.ErrorIs(t, err, ErrNotAcquired)

	release()
	release() // second call is a no-op
	again, err := l.Acquire(context.Background(), "pc:1")
	require.NoError(t, err)
	again()
}

func TestRedisLeaseIsRenewedUntilReleased(t *testing.T) {
	l := NewRedisLocker(nil, "ghostlounge:test:lock:", 30*time.Millisecond)
	var renewals int32
	l.extend = func(_ context.Context, key, token string) (bool, error) {
		assert.Equal(t, "pc:1", key)
		assert.Equal(t, "owner", token)
		atomic.AddInt32(&renewals, 1)
		return true, nil
	}

	stop := l.keepAlive("pc:1", "owner")
	require.Eventually(t, func() bool { return atomic.LoadInt32(&renewals) >= 3 }, time.Second, 5*time.Millisecond)
	stop()
	after := atomic.LoadInt32(&renewals)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&renewals), "no renewals after release")
}

func TestRedisLeaseRenewalStopsWhenLost(t *testing.T) {
	l := NewRedisLocker(nil, "ghostlounge:test:lock:", 30*time.Millisecond)
	var renewals int32
	l.extend = func(context.Context, string, string) (bool, error) {
		atomic.AddInt32(&renewals, 1)
		return false, nil
	}

	stop := l.keepAlive("pc:1", "owner")
	require.Eventually(t, func() bool { return atomic.LoadInt32(&renewals) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&renewals))
	stop()
}

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("GHOSTLOUNGE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GHOSTLOUNGE_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLocker(client, "ghostlounge:test:lock:", time.Second)
	release, err := l.Acquire(context.Background(), t.Name())
	require.NoError(t, err)

	_, ok, err := l.TryLock(context.Background(), t.Name())
	require.NoError(t, err)
	assert.False(t, ok)

	release()

	// a holder that outlives the ttl keeps its lease
	release, err = l.Acquire(context.Background(), t.Name())
	require.NoError(t, err)
	time.Sleep(1500 * time.Millisecond)
	_, ok, err = l.TryLock(context.Background(), t.Name())
	require.NoError(t, err)
	assert.False(t, ok)
	release()

	token, ok, err := l.TryLock(context.Background(), t.Name())
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, l.Release(context.Background(), t.Name(), token))
}
