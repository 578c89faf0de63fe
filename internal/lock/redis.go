package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agfi/registro-backend/internal/logging"
)

// releaseScript deletes the key only when it still holds our token, so a
// lock that expired and was taken by someone else is never released by us.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLocker implements Locker with SET NX PX. The lock expires on its own
// after ttl so a crashed holder cannot block a key forever. When Redis
// returns an error the fallback locker is used instead.
type RedisLocker struct {
	rdb      *redis.Client
	ttl      time.Duration
	prefix   string
	retry    time.Duration
	fallback Locker
}

// NewRedisLocker builds a RedisLocker. ttl is both the lock lifetime and
// the maximum time Acquire waits.
func NewRedisLocker(rdb *redis.Client, ttl time.Duration, fallback Locker) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if fallback == nil {
		fallback = NewLocalLocker(ttl)
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, prefix: "lock", retry: 50 * time.Millisecond, fallback: fallback}
}

// New returns a Redis-backed locker when rdb is non-nil and an in-process
// one otherwise.
func New(rdb *redis.Client, ttl time.Duration) Locker {
	if rdb == nil {
		return NewLocalLocker(ttl)
	}
	return NewRedisLocker(rdb, ttl, nil)
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	full := l.prefix + ":" + key
	deadline := time.Now().Add(l.ttl)

	for {
		ok, err := l.rdb.SetNX(ctx, full, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logging.Warn().Err(err).Str("key", key).Msg("redis lock unavailable, using local lock")
			return l.fallback.Acquire(ctx, key)
		}
		if ok {
			return l.releaser(full, token), nil
		}
		if time.Now().After(deadline) {
			return nil, ErrNotAcquired
		}
		select {
		case <-time.After(l.retry):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (l *RedisLocker) releaser(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be cancelled at this point.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
				logging.Warn().Err(err).Str("key", key).Msg("redis lock release failed")
			}
		})
	}
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
