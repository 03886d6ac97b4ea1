package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"YieldScope/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Cache struct {
		DefaultTTL     time.Duration `yaml:"default_ttl"`
		FlushThreshold int           `yaml:"flush_threshold"`
		SnapshotPath   string        `yaml:"snapshot_path"`
		FlushTimeout   time.Duration `yaml:"flush_timeout"`
		Redis          struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		AlertTopic   string   `yaml:"alert_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Invalidation struct {
			Topic      string        `yaml:"topic"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"invalidation"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Analysis struct {
		WindowDays          int           `yaml:"window_days"`
		LookbackYears       int           `yaml:"lookback_years"`
		ConfidenceThreshold float64       `yaml:"confidence_threshold"`
		EventsPerYear       float64       `yaml:"events_per_year"`
		SeriesTTL           time.Duration `yaml:"series_ttl"`
	} `yaml:"analysis"`
	Simulation struct {
		SimCount int `yaml:"sim_count"`
		Workers  int `yaml:"workers"`
	} `yaml:"simulation"`
	Alerts struct {
		Enabled    bool          `yaml:"enabled"`
		WebhookURL string        `yaml:"webhook_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"alerts"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("ALERT_TOPIC"); v != "" {
		c.Kafka.AlertTopic = v
	}
	if v := os.Getenv("CACHE_FLUSH_THRESHOLD"); v != "" {
		if n := util.ParseIntDefault(v, 0); n > 0 {
			c.Cache.FlushThreshold = n
		}
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Cache.FlushThreshold <= 0 {
		return fmt.Errorf("cache.flush_threshold must be positive")
	}
	if c.Cache.SnapshotPath == "" {
		return fmt.Errorf("cache.snapshot_path is required")
	}
	if c.Analysis.WindowDays <= 1 {
		return fmt.Errorf("analysis.window_days must be greater than 1")
	}
	if c.Analysis.LookbackYears <= 0 {
		return fmt.Errorf("analysis.lookback_years must be positive")
	}
	if c.Analysis.ConfidenceThreshold < 0 || c.Analysis.ConfidenceThreshold > 1 {
		return fmt.Errorf("analysis.confidence_threshold must be within [0, 1]")
	}
	if c.Simulation.SimCount <= 0 {
		return fmt.Errorf("simulation.sim_count must be positive")
	}
	return nil
}
