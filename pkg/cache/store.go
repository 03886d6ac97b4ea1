package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	applogger "YieldScope/pkg/logger"
)

// MemoryStore owns the fast in-process tier and the durable-tier handle.
// It is the only piece of mutable shared state in the service: one
// instance is constructed at process start and passed to all callers.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]Entry // fast tier
	persisted map[string]Entry // last durable snapshot, promote-on-hit
	stats     Stats

	dirty          bool
	opsSinceFlush  int
	flushThreshold int

	durable      DurableStore // nil degrades to fast-tier-only
	path         string
	flushTimeout time.Duration
	flushing     bool
	flushMu      sync.Mutex

	now func() time.Time
	l   *applogger.Logger
}

// NewMemoryStore creates the store. Call Load once at startup to pull the
// persisted snapshot, and Close on shutdown for a final forced flush.
func NewMemoryStore(durable DurableStore, opts ...StoreOption) *MemoryStore {
	cfg := &StoreConfig{
		FlushThreshold: 3,
		SnapshotPath:   "yieldscope/cache_snapshot.json",
		FlushTimeout:   10 * time.Second,
		Clock:          time.Now,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &MemoryStore{
		entries:        make(map[string]Entry),
		persisted:      make(map[string]Entry),
		flushThreshold: cfg.FlushThreshold,
		durable:        durable,
		path:           cfg.SnapshotPath,
		flushTimeout:   cfg.FlushTimeout,
		now:            cfg.Clock,
		l:              cfg.Logger,
	}
}

// Load deserializes the durable snapshot once at startup. A missing or
// unreachable durable tier degrades to fast-tier-only with a warning; a
// document that exists but cannot be decoded is a fatal error.
func (s *MemoryStore) Load(ctx context.Context) error {
	if s.durable == nil {
		s.warn("cache: no durable tier configured, running fast-tier-only")
		return nil
	}

	ok, err := s.durable.Exists(ctx, s.path)
	if err != nil {
		s.warn("cache: durable tier unreachable on load", applogger.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	data, err := s.durable.Read(ctx, s.path)
	if err != nil {
		s.warn("cache: snapshot read failed", applogger.Error(err))
		return nil
	}

	var doc snapshot
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if doc.Version != snapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, doc.Version)
	}

	s.mu.Lock()
	s.persisted = doc.Entries
	if s.persisted == nil {
		s.persisted = make(map[string]Entry)
	}
	s.mu.Unlock()

	if s.l != nil {
		s.l.Info("cache: snapshot loaded",
			applogger.Int("entries", len(doc.Entries)),
			applogger.String("path", s.path),
		)
	}
	return nil
}

// Get resolves the deterministic key and checks the fast tier, then the
// persisted tier, promoting a valid durable hit into the fast tier.
// Expired entries count as misses and are evicted lazily.
func (s *MemoryStore) Get(q Query) (json.RawMessage, bool, float64) {
	key := q.Key()
	now := s.now()

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if ok && e.Valid(now) {
		s.mu.Lock()
		s.stats.Hits++
		s.mu.Unlock()
		return e.Payload, true, e.AgeMinutes(now)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ok && !e.Valid(now) {
		delete(s.entries, key)
		s.stats.Evictions++
	}

	if p, pok := s.persisted[key]; pok && p.Valid(now) {
		s.entries[key] = p
		s.stats.Hits++
		s.stats.Promotions++
		return p.Payload, true, p.AgeMinutes(now)
	}

	s.stats.Misses++
	return nil, false, 0
}

// Put stores a fresh entry into the fast tier, marks the store dirty and
// advances the mutation counter. Reaching the flush threshold triggers a
// background flush; the counter resets only when that flush succeeds.
func (s *MemoryStore) Put(q Query, payload []byte, ttlMinutes int) {
	e := Entry{
		Key:        q.Key(),
		Payload:    append(json.RawMessage(nil), payload...),
		CachedAt:   s.now(),
		TTLMinutes: ttlMinutes,
	}

	s.mu.Lock()
	s.entries[e.Key] = e
	s.dirty = true
	s.opsSinceFlush++
	trigger := s.opsSinceFlush >= s.flushThreshold
	s.mu.Unlock()

	if trigger {
		go s.backgroundFlush()
	}
}

// Invalidate removes every entry whose key matches exactly or by prefix
// from both tiers, then synchronously rewrites the durable snapshot.
// Invalidations do not count toward the flush threshold.
func (s *MemoryStore) Invalidate(ctx context.Context, keyOrPrefix string) int {
	s.mu.Lock()
	removed := 0
	for k := range s.entries {
		if k == keyOrPrefix || strings.HasPrefix(k, keyOrPrefix) {
			delete(s.entries, k)
			removed++
		}
	}
	for k := range s.persisted {
		if k == keyOrPrefix || strings.HasPrefix(k, keyOrPrefix) {
			delete(s.persisted, k)
		}
	}
	if removed > 0 {
		s.dirty = true
	}
	s.mu.Unlock()

	if removed > 0 {
		if err := s.Flush(ctx, true); err != nil {
			s.warn("cache: invalidate flush failed", applogger.Error(err))
		}
	}
	return removed
}

// Flush serializes the full fast-tier map to the durable tier. A no-op
// when clean and not forced. Two concurrent flushes of the same snapshot
// are prevented; in-flight flushes are never cancelled mid-write.
func (s *MemoryStore) Flush(ctx context.Context, force bool) error {
	s.mu.RLock()
	dirty := s.dirty
	s.mu.RUnlock()
	if !dirty && !force {
		return nil
	}

	if s.durable == nil {
		s.warn("cache: flush skipped, no durable tier")
		return nil
	}

	s.flushMu.Lock()
	if s.flushing {
		s.flushMu.Unlock()
		return ErrFlushInProgress
	}
	s.flushing = true
	s.flushMu.Unlock()
	defer func() {
		s.flushMu.Lock()
		s.flushing = false
		s.flushMu.Unlock()
	}()

	s.mu.RLock()
	doc := snapshot{
		Version: snapshotVersion,
		SavedAt: s.now(),
		Entries: make(map[string]Entry, len(s.entries)),
		Stats:   s.stats,
	}
	for k, e := range s.entries {
		doc.Entries[k] = e
	}
	s.mu.RUnlock()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	wctx, cancel := context.WithTimeout(ctx, s.flushTimeout)
	defer cancel()
	if err := s.durable.Write(wctx, s.path, data); err != nil {
		s.mu.Lock()
		s.stats.FlushFails++
		s.mu.Unlock()
		return fmt.Errorf("write snapshot: %w", err)
	}

	s.mu.Lock()
	s.dirty = false
	s.opsSinceFlush = 0
	s.persisted = doc.Entries
	s.stats.Flushes++
	s.mu.Unlock()
	return nil
}

// backgroundFlush runs the threshold-triggered flush off the caller's
// critical path. Failures are absorbed: operations since the last
// successful flush stay pending and the counter keeps accumulating.
func (s *MemoryStore) backgroundFlush() {
	if err := s.Flush(context.Background(), false); err != nil {
		if err == ErrFlushInProgress {
			return
		}
		s.warn("cache: background flush failed, persistence unavailable this cycle",
			applogger.Error(err))
	}
}

// Stats returns a snapshot of the runtime counters.
func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Dirty reports whether mutations are pending since the last successful
// flush, alongside the pending operation count.
func (s *MemoryStore) Dirty() (bool, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty, s.opsSinceFlush
}

// Len returns the fast-tier entry count.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close forces a final flush. Pending mutations lost on a failed final
// flush are accepted data loss, not a correctness violation.
func (s *MemoryStore) Close(ctx context.Context) error {
	err := s.Flush(ctx, true)
	if err != nil && err != ErrFlushInProgress {
		s.warn("cache: final flush failed", applogger.Error(err))
		return err
	}
	return nil
}

func (s *MemoryStore) warn(msg string, fields ...applogger.Field) {
	if s.l != nil {
		s.l.Warn(msg, fields...)
	}
}
