package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	domrepo "YieldScope/internal/domain/repository"
	"YieldScope/pkg/cache"
	applogger "YieldScope/pkg/logger"
)

// InvalidationHandler consumes cache-invalidation events and purges
// matching entries. It gives operators a remote purge path without
// restarting the service.
type InvalidationHandler struct {
	topic   string
	store   *cache.MemoryStore
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewInvalidationHandler(topic string, store *cache.MemoryStore, metrics domrepo.Metrics, l *applogger.Logger) *InvalidationHandler {
	return &InvalidationHandler{topic: topic, store: store, metrics: metrics, l: l}
}

func (h *InvalidationHandler) Topic() string { return h.topic }

// incoming message schema: {key_or_prefix}
func (h *InvalidationHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		KeyOrPrefix string `json:"key_or_prefix"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("invalidation_unmarshal")
		return fmt.Errorf("decode invalidation event: %w", err)
	}
	if m.KeyOrPrefix == "" {
		h.metrics.RecordError("invalidation_empty")
		return fmt.Errorf("invalidation event without key_or_prefix")
	}

	removed := h.store.Invalidate(ctx, m.KeyOrPrefix)
	h.l.Info("cache invalidation applied",
		applogger.String("key_or_prefix", m.KeyOrPrefix),
		applogger.Int("removed", removed),
	)
	return nil
}
