package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisStore(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: ping redis: %w", err)
	}

	logger.Info("Redis connection established successfully", "addr", cfg.Addr)

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client; used by tests.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	const op = "cache.Get"

	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return "", fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}

	return value, nil
}

func (s *RedisStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	const op = "cache.SetWithTTL"

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}

	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) (int64, error) {
	const op = "cache.Delete"

	removed, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}

	return removed, nil
}

func (s *RedisStore) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	const op = "cache.ScanKeys"

	var keys []string
	var cursor uint64

	for {
		batch, next, err := s.client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
		}

		keys = append(keys, batch...)

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

func (s *RedisStore) TTL(ctx context.Context, key string) (int64, error) {
	const op = "cache.TTL"

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}

	// go-redis reports the Redis sentinel values -1 and -2 as raw durations
	switch ttl {
	case -1:
		return TTLNone, nil
	case -2:
		return TTLMissing, nil
	default:
		return int64(ttl / time.Second), nil
	}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
