// Package cache holds the read-through balance cache. Entries are dropped on
// every ledger write for the client, so a hit is never older than the last write.
//
// Every Invalidate also bumps a per-client version. Readers take a Version
// before computing a balance and Fill with it; a fill whose version is stale
// is discarded, so a slow reader cannot re-cache a value that a concurrent
// write already invalidated.
package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"ghostlounge_backend/pkg/money"
)

// NoFill is a version that Fill always rejects.
const NoFill int64 = -1

// BalanceCache stores computed client balances.
type BalanceCache interface {
	Get(ctx context.Context, clientID int64) (money.Cents, bool)
	Version(ctx context.Context, clientID int64) int64
	Fill(ctx context.Context, clientID, version int64, balance money.Cents)
	Invalidate(ctx context.Context, clientID int64)
}

// Nop never caches.
type Nop struct{}

func (Nop) Get(context.Context, int64) (money.Cents, bool)  { return 0, false }
func (Nop) Version(context.Context, int64) int64            { return NoFill }
func (Nop) Fill(context.Context, int64, int64, money.Cents) {}
func (Nop) Invalidate(context.Context, int64)               {}

type entry struct {
	value   money.Cents
	expires time.Time
}

// Memory is an in-process TTL cache.
type Memory struct {
	mu       sync.RWMutex
	ttl      time.Duration
	entries  map[int64]entry
	versions map[int64]int64
	now      func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, entries: make(map[int64]entry), versions: make(map[int64]int64), now: time.Now}
}

func (m *Memory) Get(_ context.Context, clientID int64) (money.Cents, bool) {
	m.mu.RLock()
	e, ok := m.entries[clientID]
	m.mu.RUnlock()
	if !ok || !m.now().Before(e.expires) {
		return 0, false
	}
	return e.value, true
}

func (m *Memory) Version(_ context.Context, clientID int64) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.versions[clientID]
}

func (m *Memory) Fill(_ context.Context, clientID, version int64, balance money.Cents) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if version == NoFill || m.versions[clientID] != version {
		return
	}
	m.entries[clientID] = entry{value: balance, expires: m.now().Add(m.ttl)}
}

func (m *Memory) Invalidate(_ context.Context, clientID int64) {
	m.mu.Lock()
	m.versions[clientID]++
	delete(m.entries, clientID)
	m.mu.Unlock()
}

// fillScript stores ARGV[2] under KEYS[1] only while the version at KEYS[2]
// still equals ARGV[1]. A missing version counts as 0.
var fillScript = redis.NewScript(`
local v = redis.call("GET", KEYS[2])
if (v or "0") == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
end
return 0
`)

// Redis shares cached balances across instances. Redis errors degrade to a miss.
// A client whose invalidation failed is treated as uncached by this instance
// until a retried invalidation succeeds.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	onErr  func(error)

	mu    sync.Mutex
	dirty map[int64]struct{}
}

// NewRedis builds a Redis-backed cache. onErr, when set, observes Redis failures.
func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration, onErr func(error)) *Redis {
	if onErr == nil {
		onErr = func(error) {}
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl, onErr: onErr, dirty: make(map[int64]struct{})}
}

func (r *Redis) key(clientID int64) string {
	return r.prefix + strconv.FormatInt(clientID, 10)
}

func (r *Redis) versionKey(clientID int64) string {
	return r.prefix + "v:" + strconv.FormatInt(clientID, 10)
}

func (r *Redis) isDirty(clientID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.dirty[clientID]
	return ok
}

func (r *Redis) Get(ctx context.Context, clientID int64) (money.Cents, bool) {
	if r.isDirty(clientID) {
		// retry the lost invalidation; either way this read is a miss
		r.Invalidate(ctx, clientID)
		return 0, false
	}
	v, err := r.client.Get(ctx, r.key(clientID)).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.onErr(err)
		}
		return 0, false
	}
	return money.Cents(v), true
}

func (r *Redis) Version(ctx context.Context, clientID int64) int64 {
	if r.isDirty(clientID) {
		return NoFill
	}
	v, err := r.client.Get(ctx, r.versionKey(clientID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		r.onErr(err)
		return NoFill
	}
	return v
}

func (r *Redis) Fill(ctx context.Context, clientID, version int64, balance money.Cents) {
	if version == NoFill || r.isDirty(clientID) {
		return
	}
	keys := []string{r.key(clientID), r.versionKey(clientID)}
	err := fillScript.Run(ctx, r.client, keys, strconv.FormatInt(version, 10), int64(balance), r.ttl.Milliseconds()).Err()
	if err != nil {
		r.onErr(err)
	}
}

func (r *Redis) Invalidate(ctx context.Context, clientID int64) {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, r.versionKey(clientID))
		pipe.Del(ctx, r.key(clientID))
		return nil
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.dirty[clientID] = struct{}{}
		r.onErr(err)
		return
	}
	delete(r.dirty, clientID)
}
