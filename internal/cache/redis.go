package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisMarks keeps the suppression set in a Redis set so that every gateway
// replica sharing the cache directory honors a report.
type RedisMarks struct {
	client *redis.Client
	setKey string
}

type RedisConfig struct {
	Prefix string
}

// NewRedisMarks creates a Redis-backed suppression set.
func NewRedisMarks(client *redis.Client, config RedisConfig) *RedisMarks {
	setKey := "reported"
	if config.Prefix != "" {
		setKey = config.Prefix + ":" + setKey
	}
	return &RedisMarks{client: client, setKey: setKey}
}

func (m *RedisMarks) Mark(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if err := m.client.SAdd(ctx, m.setKey, key).Err(); err != nil {
		return fmt.Errorf("redis sadd failed: %w", err)
	}
	return nil
}

func (m *RedisMarks) Clear(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if err := m.client.SRem(ctx, m.setKey, key).Err(); err != nil {
		return fmt.Errorf("redis srem failed: %w", err)
	}
	return nil
}

// IsMarked returns an error on Redis failure; callers treat that as marked
// so a possibly reported clip is never served.
func (m *RedisMarks) IsMarked(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}
	ok, err := m.client.SIsMember(ctx, m.setKey, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis sismember failed: %w", err)
	}
	return ok, nil
}

func (m *RedisMarks) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}
	n, err := m.client.SCard(ctx, m.setKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis scard failed: %w", err)
	}
	return int(n), nil
}

// Ping checks if Redis connection is healthy.
func (m *RedisMarks) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}
