package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/findmyridesa/provider-admin/internal/pkg/env"
)

var client *redis.Client

// SetupCache initializes the connection to the Redis cache server
func SetupCache(log *zap.Logger) {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	})

	// Test the connection
	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		log.Warn("could not connect to cache", zap.Error(err))
	} else {
		log.Info("connected to cache", zap.String("reply", pong))
	}
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Store is a small JSON value store on top of a Redis client.
type Store struct {
	rdb    redis.Cmdable
	prefix string
}

// NewStore namespaces every key with prefix.
func NewStore(rdb redis.Cmdable, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// SetJSON stores value encoded as JSON with the given expiration.
func (s *Store) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return s.rdb.Set(ctx, s.key(key), data, expiration).Err()
}

// GetJSON decodes the value stored at key into dst. found is false on a miss.
func (s *Store) GetJSON(ctx context.Context, key string, dst interface{}) (found bool, err error) {
	data, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("unmarshal cache value: %w", err)
	}
	return true, nil
}

// Delete removes a value from the cache by key
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.key(key)).Err()
}
