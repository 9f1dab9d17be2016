package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend shares cached query results between site instances. Keys are
// namespaced by a generation counter; Purge bumps the generation so stale
// entries are never read again and age out on their TTL.
type RedisBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisBackend connects to the Redis server at url (redis://...) and
// verifies the connection.
func NewRedisBackend(ctx context.Context, url, prefix string, ttl time.Duration) (*RedisBackend, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisBackendFromClient(client, prefix, ttl), nil
}

// NewRedisBackendFromClient uses an existing client.
func NewRedisBackendFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisBackend {
	if prefix == "" {
		prefix = "pitchside"
	}
	return &RedisBackend{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisBackend) generationKey() string {
	return r.prefix + ":generation"
}

func (r *RedisBackend) key(ctx context.Context, key string) (string, error) {
	gen, err := r.client.Get(ctx, r.generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("{%s:%d}:%s", r.prefix, gen, key), nil
}

// Get implements Backend.
func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	full, err := r.key(ctx, key)
	if err != nil {
		return nil, false, err
	}
	val, err := r.client.Get(ctx, full).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set implements Backend.
func (r *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	full, err := r.key(ctx, key)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, full, value, r.ttl).Err()
}

// Purge implements Backend.
func (r *RedisBackend) Purge(ctx context.Context) error {
	return r.client.Incr(ctx, r.generationKey()).Err()
}

// Health checks the Redis connection.
func (r *RedisBackend) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
