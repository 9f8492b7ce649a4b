package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLocker implements best-effort mutual exclusion via SETNX with TTL.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

// NewRedisLocker builds a locker over the shared client.
func NewRedisLocker(client *redis.Client, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix}
}

// Acquire takes the lock if free. The TTL bounds how long a crashed holder
// can block others.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+key, "1", ttl).Result()
}

// Release frees the lock early.
func (l *RedisLocker) Release(ctx context.Context, key string) {
	_ = l.client.Del(ctx, l.prefix+key).Err()
}
