package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the content store with a Redis instance.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis using REDIS_* environment variables and
// verifies the connection with a ping.
func NewRedisStore() (*RedisStore, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}

	return &RedisStore{rdb: rdb}, nil
}

// Get returns the value for key, or ErrNotFound if it is absent.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key with no expiry.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Del removes key. Deleting an absent key is not an error.
func (s *RedisStore) Del(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Keys returns all keys matching the glob pattern.
func (s *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := s.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, fmt.Errorf("redis keys %s: %w", pattern, err)
	}
	return keys, nil
}

// Close closes the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// getEnv gets environment variable with fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
