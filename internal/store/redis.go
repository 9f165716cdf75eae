package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisConfig Redis store settings
type RedisConfig struct {
	Addr          string // e.g. "localhost:6379"
	Password      string
	DB            int
	KeyPrefix     string // e.g. "onlyfachas:"
	MaxValueBytes int
}

// RedisStore implements Store on Redis strings
type RedisStore struct {
	client        *redis.Client
	keyPrefix     string
	maxValueBytes int
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(config RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return NewRedisStoreWithClient(client, config.KeyPrefix, config.MaxValueBytes)
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string, maxValueBytes int) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "onlyfachas:"
	}
	if maxValueBytes <= 0 {
		maxValueBytes = DefaultMaxValueBytes
	}
	return &RedisStore{
		client:        client,
		keyPrefix:     keyPrefix,
		maxValueBytes: maxValueBytes,
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if len(value) > s.maxValueBytes {
		return ErrQuotaExceeded
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, value, 0).Err(); err != nil {
		if isOutOfMemory(err) {
			return ErrQuotaExceeded
		}
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, key := range keys {
		pipe.Del(ctx, s.keyPrefix+key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Ping Redis 연결 확인
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// isOutOfMemory detects the OOM reply redis sends when maxmemory is reached
func isOutOfMemory(err error) bool {
	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		msg := redisErr.Error()
		return len(msg) >= 3 && msg[:3] == "OOM"
	}
	return false
}

var _ Store = (*RedisStore)(nil)
