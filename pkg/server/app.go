package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	internalrepo "YieldScope/internal/repository"
	"YieldScope/internal/usecase"
	"YieldScope/pkg/cache"
	pkgch "YieldScope/pkg/clickhouse"
	"YieldScope/pkg/config"
	xhttp "YieldScope/pkg/http"
	pkgkafka "YieldScope/pkg/kafka"
	applogger "YieldScope/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	handler    xhttp.Handler
	store      *cache.MemoryStore
	consumer   *pkgkafka.Consumer
	ih         *usecase.InvalidationHandler
	producer   *pkgkafka.Producer
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	store *cache.MemoryStore,
	consumer *pkgkafka.Consumer,
	ih *usecase.InvalidationHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:      cfg,
		l:        l,
		handler:  handler,
		store:    store,
		consumer: consumer,
		ih:       ih,
		producer: producer,
		chClient: chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// aggregate repeated log lines onto a topic when Kafka is available
	if a.producer != nil {
		a.l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "yieldscope.logs",
			Publisher:      internalrepo.NewKafkaLogPublisher(a.producer),
		})
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.l),
		xhttp.WithMetricsPath(metricsPath(a.cfg)),
	)

	if a.consumer != nil && a.ih != nil {
		a.consumer.RegisterHandler(a.ih)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("invalidation consumer started", applogger.String("topic", a.ih.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services. The cache flushes its final
// snapshot before the durable tier goes away.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.l.Warn("cache final flush error", applogger.Error(err))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.l.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.RemoveCollector()
	a.l.Info("shutdown complete")
	return nil
}

func metricsPath(cfg *config.Config) string {
	if !cfg.Metrics.Enabled {
		return ""
	}
	if cfg.Metrics.Path != "" {
		return cfg.Metrics.Path
	}
	return "/metrics"
}
