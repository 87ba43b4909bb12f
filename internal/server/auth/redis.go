package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig selects the Redis instance shared by all server replicas.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisClient connects and pings.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisDenylist stores revoked grant IDs with a TTL matching the grant's
// remaining lifetime, so Redis expires them on its own.
type RedisDenylist struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisDenylist(client *redis.Client, prefix string) *RedisDenylist {
	if prefix == "" {
		prefix = "portal:revoked:"
	}
	return &RedisDenylist{client: client, prefix: prefix, now: time.Now}
}

func (d *RedisDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, d.prefix+jti, "1", ttl).Err()
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, d.prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RedisLockout counts failures with INCR; the key's TTL is the window.
type RedisLockout struct {
	client      *redis.Client
	prefix      string
	maxAttempts int
	window      time.Duration
}

func NewRedisLockout(client *redis.Client, prefix string, maxAttempts int, window time.Duration) *RedisLockout {
	if prefix == "" {
		prefix = "portal:lockout:"
	}
	return &RedisLockout{client: client, prefix: prefix, maxAttempts: maxAttempts, window: window}
}

func (l *RedisLockout) key(id string) string {
	return l.prefix + normalizeID(id)
}

func (l *RedisLockout) Allowed(ctx context.Context, id string) (bool, error) {
	if l.maxAttempts <= 0 {
		return true, nil
	}
	n, err := l.client.Get(ctx, l.key(id)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, nil
		}
		return false, err
	}
	return n < l.maxAttempts, nil
}

func (l *RedisLockout) RecordFailure(ctx context.Context, id string) (bool, error) {
	if l.maxAttempts <= 0 {
		return false, nil
	}
	key := l.key(id)

	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	// The window starts at the first failure.
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return n >= int64(l.maxAttempts), nil
}

func (l *RedisLockout) Reset(ctx context.Context, id string) error {
	return l.client.Del(ctx, l.key(id)).Err()
}
