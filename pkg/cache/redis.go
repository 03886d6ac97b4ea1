package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBlobStore implements DurableStore on Redis: each path maps to one
// key holding the full snapshot document.
type RedisBlobStore struct {
	client *redis.Client
	prefix string
}

// NewRedisBlobStore creates a Redis-backed durable store.
func NewRedisBlobStore(opts ...RedisOption) (*RedisBlobStore, error) {
	cfg := &RedisConfig{
		Host:         "localhost",
		Port:         6379,
		DB:           0,
		PoolSize:     10,
		PoolTimeout:  30 * time.Second,
		MinIdleConns: 5,
		Prefix:       "yieldscope",
	}

	for _, opt := range opts {
		opt(cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		PoolTimeout:  cfg.PoolTimeout,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisBlobStore{
		client: client,
		prefix: cfg.Prefix,
	}, nil
}

// Client returns underlying redis client.
func (c *RedisBlobStore) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection.
func (c *RedisBlobStore) Close() error {
	return c.client.Close()
}

func (c *RedisBlobStore) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.wrapKey(path)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return data, nil
}

// Write persists the document without expiry; snapshots stay valid until
// superseded by the next flush.
func (c *RedisBlobStore) Write(ctx context.Context, path string, data []byte) error {
	return c.client.Set(ctx, c.wrapKey(path), data, 0).Err()
}

func (c *RedisBlobStore) Exists(ctx context.Context, path string) (bool, error) {
	n, err := c.client.Exists(ctx, c.wrapKey(path)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *RedisBlobStore) wrapKey(path string) string {
	return fmt.Sprintf("%s:%s", c.prefix, path)
}
