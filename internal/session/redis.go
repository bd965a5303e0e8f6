package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Chqrety/reservation/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each session value under its own key so the token and
// the user expire together with the session TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient builds a Redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(sid, key string) string {
	return fmt.Sprintf("session:%s:%s", sid, key)
}

func (s *RedisStore) Get(ctx context.Context, sid, key string) (string, error) {
	if s.client == nil {
		return "", errors.New("redis client is nil")
	}
	val, err := s.client.Get(ctx, redisKey(sid, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session value from redis: %w", err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, sid, key, value string) error {
	if s.client == nil {
		return errors.New("redis client is nil")
	}
	if err := s.client.Set(ctx, redisKey(sid, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session value in redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sid string, keys ...string) error {
	if s.client == nil {
		return errors.New("redis client is nil")
	}
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, redisKey(sid, k))
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete session values from redis: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}
