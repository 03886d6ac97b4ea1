package cache

import (
	"time"

	applogger "YieldScope/pkg/logger"
)

// StoreOption configures MemoryStore.
type StoreOption func(*StoreConfig)

// StoreConfig holds memory store configuration.
type StoreConfig struct {
	FlushThreshold int
	SnapshotPath   string
	FlushTimeout   time.Duration
	Clock          func() time.Time
	Logger         *applogger.Logger
}

// WithFlushThreshold sets how many mutations trigger a background flush.
// This is also the accepted data-loss window across a crash.
func WithFlushThreshold(n int) StoreOption {
	return func(c *StoreConfig) {
		if n > 0 {
			c.FlushThreshold = n
		}
	}
}

// WithSnapshotPath sets the durable-tier document path.
func WithSnapshotPath(path string) StoreOption {
	return func(c *StoreConfig) {
		if path != "" {
			c.SnapshotPath = path
		}
	}
}

// WithFlushTimeout bounds durable-tier writes.
func WithFlushTimeout(d time.Duration) StoreOption {
	return func(c *StoreConfig) {
		if d > 0 {
			c.FlushTimeout = d
		}
	}
}

// WithClock injects the time source, used by tests for TTL determinism.
func WithClock(now func() time.Time) StoreOption {
	return func(c *StoreConfig) {
		if now != nil {
			c.Clock = now
		}
	}
}

// WithLogger injects a structured logger.
func WithLogger(l *applogger.Logger) StoreOption {
	return func(c *StoreConfig) {
		c.Logger = l
	}
}

// RedisOption configures the Redis durable store.
type RedisOption func(*RedisConfig)

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	PoolTimeout  time.Duration
	MinIdleConns int
	Prefix       string
}

// WithRedisHost sets Redis host.
func WithRedisHost(host string) RedisOption {
	return func(c *RedisConfig) {
		c.Host = host
	}
}

// WithRedisPort sets Redis port.
func WithRedisPort(port int) RedisOption {
	return func(c *RedisConfig) {
		c.Port = port
	}
}

// WithRedisPassword sets Redis password.
func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
	}
}

// WithRedisDB sets Redis database number.
func WithRedisDB(db int) RedisOption {
	return func(c *RedisConfig) {
		c.DB = db
	}
}

// WithRedisPool sets connection pool settings.
func WithRedisPool(poolSize, minIdleConns int, timeout time.Duration) RedisOption {
	return func(c *RedisConfig) {
		c.PoolSize = poolSize
		c.MinIdleConns = minIdleConns
		c.PoolTimeout = timeout
	}
}

// WithRedisPrefix sets key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		c.Prefix = prefix
	}
}
