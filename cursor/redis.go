package cursor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis-backed cursor.
type RedisConfig struct {
	Addr     string // e.g. localhost:6379
	Password string
	DB       int
	Key      string
}

// kv is the subset of *redis.Client the store uses.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// RedisStore keeps the cursor under a single Redis key.
type RedisStore struct {
	client kv
	key    string
}

// NewRedisStore connects and verifies connectivity with PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return NewRedisStoreFromClient(client, cfg.Key), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, key string) *RedisStore {
	return newRedisStore(client, key)
}

func newRedisStore(client kv, key string) *RedisStore {
	if key == "" {
		key = "yt2x:cursor"
	}
	return &RedisStore{client: client, key: key}
}

// Load returns "" when the key does not exist.
func (s *RedisStore) Load(ctx context.Context) (string, error) {
	v, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return v, nil
}

// Save sets the key without expiry. A single SET is atomic on the server.
func (s *RedisStore) Save(ctx context.Context, id string) error {
	if err := s.client.Set(ctx, s.key, id, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Close closes the underlying Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
