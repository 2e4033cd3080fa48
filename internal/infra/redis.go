package infra

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// NewRedis creates and validates a go-redis client connection.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)

	// Validate connectivity at startup
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}

// ── Per-key lock ──────────────────────────────────────────────────────────────

// ErrLockBusy is returned when the lock is still held after all retries.
var ErrLockBusy = errors.New("lock ocupado")

// Deletes the key only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker is a SET NX PX lock with token-checked release.
type RedisLocker struct {
	rdb   *redis.Client
	retry time.Duration
	wait  time.Duration
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb, retry: 50 * time.Millisecond, wait: 3 * time.Second}
}

// Lock blocks until key is acquired, ctx is done, or the wait budget runs out.
// The returned func releases the lock and is safe to call once.
func (l *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.rdb.SetNX(ctx, "lock:"+key, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				_ = unlockScript.Run(context.Background(), l.rdb, []string{"lock:" + key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

// ── Token denylist ────────────────────────────────────────────────────────────

// RedisDenylist remembers revoked JWT ids until the token would expire anyway.
type RedisDenylist struct{ rdb *redis.Client }

func NewRedisDenylist(rdb *redis.Client) *RedisDenylist { return &RedisDenylist{rdb: rdb} }

func (d *RedisDenylist) Revocar(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, "jwt:revocado:"+jti, 1, ttl).Err()
}

func (d *RedisDenylist) Revocado(ctx context.Context, jti string) (bool, error) {
	n, err := d.rdb.Exists(ctx, "jwt:revocado:"+jti).Result()
	return n > 0, err
}
