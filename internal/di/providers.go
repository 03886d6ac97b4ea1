package di

import (
	"context"
	"fmt"
	"time"

	"YieldScope/internal/domain/repository"
	"YieldScope/internal/handler/api"
	internalrepo "YieldScope/internal/repository"
	"YieldScope/internal/services/volatility"
	"YieldScope/internal/usecase"
	"YieldScope/pkg/cache"
	pkgch "YieldScope/pkg/clickhouse"
	"YieldScope/pkg/config"
	xhttp "YieldScope/pkg/http"
	pkgkafka "YieldScope/pkg/kafka"
	applogger "YieldScope/pkg/logger"
	"YieldScope/pkg/metrics"
	"YieldScope/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	l, err := applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and ensures schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS yieldscope",
		"CREATE TABLE IF NOT EXISTS yieldscope.yield_history (instrument_id String, obs_date DateTime, value Float64) ENGINE=MergeTree ORDER BY (instrument_id, obs_date)",
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideSeriesProvider creates the ClickHouse-backed yield store.
func ProvideSeriesProvider(ch *pkgch.Client, l *applogger.Logger) repository.SeriesProvider {
	store := internalrepo.NewCHYieldStore(ch)
	store.SetLogger(l)
	return store
}

// ProvideMemoryStore builds the cache with its durable tier and loads the
// persisted snapshot. A corrupt snapshot fails startup; an absent or
// unreachable tier degrades to fast-tier-only.
func ProvideMemoryStore(cfg *config.Config, l *applogger.Logger) (*cache.MemoryStore, error) {
	var durable cache.DurableStore
	if cfg.Cache.Redis.Enabled {
		blob, err := cache.NewRedisBlobStore(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			// durable tier is optional at startup, keep running without it
			l.Warn("redis blob store unavailable, cache runs fast-tier-only", applogger.Error(err))
		} else {
			durable = blob
		}
	}

	store := cache.NewMemoryStore(durable,
		cache.WithFlushThreshold(cfg.Cache.FlushThreshold),
		cache.WithSnapshotPath(cfg.Cache.SnapshotPath),
		cache.WithFlushTimeout(cfg.Cache.FlushTimeout),
		cache.WithLogger(l),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("cache load: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer, nil when no brokers are
// configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideEngine creates the volatility engine from analysis settings.
func ProvideEngine(cfg *config.Config) *volatility.Engine {
	return volatility.NewEngine(
		volatility.WithWindowDays(cfg.Analysis.WindowDays),
		volatility.WithLookbackYears(cfg.Analysis.LookbackYears),
		volatility.WithEventsPerYear(cfg.Analysis.EventsPerYear),
		volatility.WithConfidenceThreshold(cfg.Analysis.ConfidenceThreshold),
	)
}

// ProvideAnalysis builds the analysis use case with the configured alert
// sinks.
func ProvideAnalysis(
	cfg *config.Config,
	store *cache.MemoryStore,
	provider repository.SeriesProvider,
	engine *volatility.Engine,
	m repository.Metrics,
	producer *pkgkafka.Producer,
	l *applogger.Logger,
) *usecase.Analysis {
	opts := []usecase.AnalysisOption{}

	ttl := cfg.Analysis.SeriesTTL
	if ttl <= 0 {
		ttl = cfg.Cache.DefaultTTL
	}
	if ttl > 0 {
		opts = append(opts, usecase.WithSeriesTTL(int(ttl.Minutes())))
	}

	if cfg.Alerts.Enabled {
		var sinks []repository.AlertSink
		if producer != nil && cfg.Kafka.AlertTopic != "" {
			sinks = append(sinks, internalrepo.NewKafkaAlertSink(producer, cfg.Kafka.AlertTopic))
		}
		if cfg.Alerts.WebhookURL != "" {
			client := xhttp.NewClient(xhttp.WithTimeout(cfg.Alerts.Timeout))
			sinks = append(sinks, internalrepo.NewWebhookAlertSink(client, cfg.Alerts.WebhookURL))
		}
		if len(sinks) > 0 {
			opts = append(opts, usecase.WithAlertSinks(sinks...))
		}
		if cfg.Alerts.Timeout > 0 {
			opts = append(opts, usecase.WithAlertTimeout(cfg.Alerts.Timeout))
		}
	}

	return usecase.NewAnalysis(store, provider, engine, m, l, opts...)
}

// ProvideSimulate builds the simulation use case.
func ProvideSimulate(cfg *config.Config, analysis *usecase.Analysis, m repository.Metrics, l *applogger.Logger) *usecase.Simulate {
	return usecase.NewSimulate(analysis, m, l,
		usecase.WithSimCount(cfg.Simulation.SimCount),
		usecase.WithSimWorkers(cfg.Simulation.Workers),
		usecase.WithCalibrationLookback(cfg.Analysis.LookbackYears),
	)
}

// ProvideKafkaConsumer creates the invalidation-events consumer, nil when
// the topic is not configured.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.Invalidation.Topic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Invalidation.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Invalidation.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Invalidation.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Invalidation.RetryMax, cfg.Kafka.Invalidation.BackoffMin, cfg.Kafka.Invalidation.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Invalidation.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Invalidation.MinBytes, cfg.Kafka.Invalidation.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideInvalidationHandler registers the handler for the invalidation
// topic.
func ProvideInvalidationHandler(cfg *config.Config, store *cache.MemoryStore, m repository.Metrics, l *applogger.Logger) *usecase.InvalidationHandler {
	return usecase.NewInvalidationHandler(cfg.Kafka.Invalidation.Topic, store, m, l)
}

// ProvideHTTPHandler builds the Echo route handler.
func ProvideHTTPHandler(l *applogger.Logger, analysis *usecase.Analysis, simulate *usecase.Simulate, store *cache.MemoryStore) xhttp.Handler {
	return api.NewAnalysisHandler(l, analysis, simulate, store)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	store *cache.MemoryStore,
	consumer *pkgkafka.Consumer,
	ih *usecase.InvalidationHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.LoggingHook{})
	}
	return server.New(cfg, l, handler, store, consumer, ih, producer, chClient)
}
