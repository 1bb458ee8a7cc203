// Package lock serializes check-then-write sequences per key, either inside
// one process or across instances through Redis.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock could not be taken before the context ended.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker hands out exclusive per-key locks. The returned release func must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// LocalLocker is an in-process Locker.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, s)
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.unref(key, s)
		})
	}, nil
}

func (l *LocalLocker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const lockExtendScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`

// RedisLocker is a lease-based Locker shared by every instance pointing at the same Redis.
// A held lease is renewed every ttl/3 until released, so a slow holder keeps
// its lock; only a crashed holder's lease runs out.
type RedisLocker struct {
	client  redis.UniversalClient
	script  *redis.Script
	renewal *redis.Script
	prefix  string
	ttl     time.Duration
	retry   time.Duration
	extend  func(ctx context.Context, key, token string) (bool, error)
}

// NewRedisLocker builds a RedisLocker. ttl bounds how long a crashed holder blocks others.
func NewRedisLocker(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	l := &RedisLocker{
		client:  client,
		script:  redis.NewScript(lockReleaseScript),
		renewal: redis.NewScript(lockExtendScript),
		prefix:  prefix,
		ttl:     ttl,
		retry:   25 * time.Millisecond,
	}
	l.extend = l.Extend
	return l
}

// Extend resets the lease on key to the full ttl if token still owns it.
func (l *RedisLocker) Extend(ctx context.Context, key, token string) (bool, error) {
	n, err := l.renewal.Run(ctx, l.client, []string{l.prefix + key}, token, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// keepAlive renews the lease until the returned stop func is called or the
// lease is found to belong to someone else. stop waits for the renewer to exit.
func (l *RedisLocker) keepAlive(key, token string) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		ticker := time.NewTicker(l.ttl / 3)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}
			ctx, cancel := context.WithTimeout(context.Background(), l.ttl/3)
			owned, err := l.extend(ctx, key, token)
			cancel()
			if err == nil && !owned {
				return
			}
		}
	}()
	return func() {
		close(done)
		<-exited
	}
}

// TryLock makes a single attempt and returns the owner token on success.
func (l *RedisLocker) TryLock(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.prefix+key, token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release deletes the key only if token still owns it.
func (l *RedisLocker) Release(ctx context.Context, key, token string) error {
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{l.prefix + key}, token).Err()
}

// Acquire polls TryLock until it succeeds or ctx ends.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		token, ok, err := l.TryLock(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
		}
		if ok {
			stopRenewal := l.keepAlive(key, token)
			var once sync.Once
			return func() {
				once.Do(func() {
					stopRenewal()
					// release must outlive a cancelled request context
					releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = l.Release(releaseCtx, key, token)
				})
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}
}
