package logger

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Publisher delivers aggregated log batches to an external topic.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

// CollectionConfig tunes log aggregation.
type CollectionConfig struct {
	TimeInterval   time.Duration // flush interval
	CountThreshold int           // max unique entries before an early flush
	Topic          string
	Publisher      Publisher
}

// AggregatedLogEntry is one deduplicated log line with its repeat count.
type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector batches identical log lines and publishes them periodically
// instead of one message per line.
type LogCollector struct {
	config *CollectionConfig
	mu     sync.Mutex
	logMap map[string]*AggregatedLogEntry
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	ctx, cancel := context.WithCancel(context.Background())
	c := &LogCollector{
		config: config,
		logMap: make(map[string]*AggregatedLogEntry),
		ctx:    ctx,
		cancel: cancel,
	}

	c.wg.Add(1)
	go c.loop()

	return c
}

// AddLog records one occurrence of a log line. Lines with the same level,
// message, fields and caller collapse into a single entry.
func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := entryKey(level, message, fields, caller)

	c.mu.Lock()
	if entry, ok := c.logMap[key]; ok {
		entry.Count++
		entry.LastSeen = now
	} else {
		c.logMap[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	var batch []AggregatedLogEntry
	if len(c.logMap) >= c.config.CountThreshold {
		batch = c.drainLocked()
	}
	c.mu.Unlock()

	c.publish(batch)
}

// Close flushes pending entries and stops the background loop.
func (c *LogCollector) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *LogCollector) loop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.ctx.Done():
			c.flush()
			return
		}
	}
}

func (c *LogCollector) flush() {
	c.mu.Lock()
	batch := c.drainLocked()
	c.mu.Unlock()

	c.publish(batch)
}

func (c *LogCollector) drainLocked() []AggregatedLogEntry {
	if len(c.logMap) == 0 {
		return nil
	}
	batch := make([]AggregatedLogEntry, 0, len(c.logMap))
	for _, entry := range c.logMap {
		batch = append(batch, *entry)
	}
	c.logMap = make(map[string]*AggregatedLogEntry)
	return batch
}

func (c *LogCollector) publish(batch []AggregatedLogEntry) {
	if len(batch) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := c.config.Publisher.PublishMessage(ctx, c.config.Topic, batch); err != nil {
			fmt.Printf("failed to publish aggregated logs: %v\n", err)
		}
	}()
}

func entryKey(level, message string, fields map[string]interface{}, caller string) string {
	raw, _ := json.Marshal(struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
		Caller  string                 `json:"caller"`
	}{level, message, fields, caller})

	return fmt.Sprintf("%x", sha256.Sum256(raw))
}
