package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a single topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ConsumerOption configures Consumer.
type ConsumerOption func(*ConsumerConfig)

// ConsumerConfig holds consumer settings.
type ConsumerConfig struct {
	Brokers         []string
	GroupID         string
	AutoOffsetReset string
	WorkerCount     int
	BufferSize      int
	RetryMax        int
	BackoffMin      time.Duration
	BackoffMax      time.Duration
	DLQTopic        string
	MinBytes        int
	MaxBytes        int
}

// WithConsumerBrokers sets the broker list.
func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Brokers = brokers
	}
}

// WithConsumerGroupID sets the consumer group id.
func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.GroupID = groupID
	}
}

// WithConsumerAutoOffsetReset sets the offset reset strategy.
func WithConsumerAutoOffsetReset(autoOffsetReset string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.AutoOffsetReset = autoOffsetReset
	}
}

// WithConsumerWorkers sets the worker goroutine count.
func WithConsumerWorkers(count int) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.WorkerCount = count
	}
}

// WithConsumerRetry configures retry attempts and the backoff range.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.RetryMax = max
		c.BackoffMin = backoffMin
		c.BackoffMax = backoffMax
	}
}

// WithConsumerDLQ sets the dead-letter topic.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.DLQTopic = topic
	}
}

// WithConsumerFetch sets fetch min/max bytes.
func WithConsumerFetch(minBytes, maxBytes int) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.MinBytes = minBytes
		c.MaxBytes = maxBytes
	}
}

// WithConsumerBufferSize sets the internal channel buffer size.
func WithConsumerBufferSize(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}

// Consumer reads registered topics and dispatches messages to a worker
// pool, with bounded retries, a dead-letter topic and per-partition
// ordering.
type Consumer struct {
	cfg       *ConsumerConfig
	readers   map[string]*kafka.Reader
	handlers  map[string]MessageHandler
	stopChan  chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	msgChan   chan *envelope
	dlq       *kafka.Writer
	partLocks map[string]map[int]*sync.Mutex
	hook      ConsumerHook
}

type envelope struct {
	topic string
	data  []byte
	km    kafka.Message
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:         "default",
		AutoOffsetReset: "earliest",
		WorkerCount:     1,
		BufferSize:      10,
		RetryMax:        3,
		BackoffMin:      50 * time.Millisecond,
		BackoffMax:      2 * time.Second,
		MinBytes:        10e3,
		MaxBytes:        10e6,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	c := &Consumer{
		cfg:       cfg,
		readers:   make(map[string]*kafka.Reader),
		handlers:  make(map[string]MessageHandler),
		stopChan:  make(chan struct{}),
		msgChan:   make(chan *envelope, cfg.BufferSize),
		partLocks: make(map[string]map[int]*sync.Mutex),
		hook:      NoopHook{},
	}

	initConsumerMetrics()

	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}

	return c, nil
}

// WithConsumerHook installs lifecycle hooks around message handling.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// RegisterHandler registers a handler for its topic. Call before Start.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		log.Printf("warn: handler already registered for topic %s", topic)
		return
	}
	c.handlers[topic] = handler
}

// Start creates readers for registered topics and launches the worker pool.
func (c *Consumer) Start() error {
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
		log.Printf("kafka consumer: registered topic=%s", topic)
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	log.Printf("kafka consumer: started workers=%d", c.cfg.WorkerCount)

	for topic, reader := range c.readers {
		c.wg.Add(1)
		go c.readLoop(topic, reader)
	}

	return nil
}

// Stop shuts the consumer down, waiting for in-flight work up to the
// context deadline.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error

	c.stopOnce.Do(func() {
		log.Println("kafka consumer: stopping")

		close(c.stopChan)
		close(c.msgChan)

		stopErr = c.waitForWorkers(ctx)

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				log.Printf("error closing reader for topic %s: %v", topic, err)
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				log.Printf("error closing dlq writer: %v", err)
			}
		}
	})

	return stopErr
}

func (c *Consumer) waitForWorkers(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
	case <-done:
		return nil
	}
}

func (c *Consumer) readLoop(topic string, reader *kafka.Reader) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		msg, err := reader.ReadMessage(ctx)
		cancel()

		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				log.Printf("error reading message from topic %s: %v", topic, err)
			}
			continue
		}

		if !c.enqueue(&envelope{topic: topic, data: msg.Value, km: msg}) {
			return
		}
	}
}

// enqueue hands the message to the worker pool, applying backpressure
// rather than dropping. Returns false when the consumer is stopping.
func (c *Consumer) enqueue(e *envelope) bool {
	for {
		select {
		case c.msgChan <- e:
			consumerQueueDepth.WithLabelValues(e.topic).Set(float64(len(c.msgChan)))
			consumerQueueFullness.WithLabelValues(e.topic).Set(float64(len(c.msgChan)) / float64(cap(c.msgChan)))
			return true
		case <-c.stopChan:
			return false
		default:
			full := float64(len(c.msgChan)) / float64(cap(c.msgChan))
			consumerQueueFullness.WithLabelValues(e.topic).Set(full)
			if full > 0.8 {
				time.Sleep(10 * time.Millisecond)
			} else {
				runtime.Gosched()
			}
		}
	}
}

func (c *Consumer) worker() {
	defer c.wg.Done()

	for e := range c.msgChan {
		handler, ok := c.handlers[e.topic]
		if !ok {
			continue
		}
		c.process(handler, e)
	}
}

func (c *Consumer) process(handler MessageHandler, e *envelope) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic in message handler for topic %s: %v", e.topic, r)
		}
		consumerHandleLatency.WithLabelValues(e.topic).Observe(time.Since(start).Seconds())
	}()

	// max in-flight of 1 per (topic, partition) keeps ordering
	pl := c.partitionLock(e.topic, e.km.Partition)
	pl.Lock()
	defer pl.Unlock()

	var err error
	attempts := 0
	for {
		attempts++
		hctx, hmsg, hdata, berr := c.hook.BeforeHandle(context.Background(), e.topic, e.km, e.data)
		if berr != nil {
			err = berr
			break
		}

		err = handler.Handle(hctx, hdata)
		c.hook.AfterHandle(hctx, e.topic, hmsg, hdata, err)
		if err == nil || attempts > c.cfg.RetryMax {
			break
		}

		c.hook.OnError(hctx, e.topic, hmsg, hdata, err)
		select {
		case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempts)):
		case <-c.stopChan:
			return
		}
	}

	if err != nil {
		c.hook.OnError(context.Background(), e.topic, e.km, e.data, err)
		log.Printf("error handling message from topic %s after %d attempts: %v", e.topic, attempts-1, err)
		c.sendToDLQ(e)
	}

	// commit on success, or after DLQ so a poison message cannot loop
	if err == nil || c.dlq != nil {
		if reader := c.readers[e.topic]; reader != nil {
			_ = c.commitWithRetry(reader, e.km, 3)
		}
	}
}

func (c *Consumer) sendToDLQ(e *envelope) {
	if c.dlq == nil || c.cfg.DLQTopic == "" {
		return
	}
	err := c.dlq.WriteMessages(context.Background(), kafka.Message{
		Topic:   c.cfg.DLQTopic,
		Value:   e.data,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "source_topic", Value: []byte(e.topic)}},
	})
	if err != nil {
		log.Printf("error writing to DLQ topic %s: %v", c.cfg.DLQTopic, err)
	}
}

func (c *Consumer) commitWithRetry(reader *kafka.Reader, km kafka.Message, max int) error {
	if max <= 0 {
		max = 1
	}
	var err error
	for attempt := 1; attempt <= max; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = reader.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	log.Printf("error committing message after %d attempts: %v", max, err)
	return err
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	m, ok := c.partLocks[topic]
	if !ok {
		m = make(map[int]*sync.Mutex)
		c.partLocks[topic] = m
	}
	l, ok := m[partition]
	if !ok {
		l = &sync.Mutex{}
		m[partition] = l
	}
	return l
}

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	exp := min * time.Duration(1<<uint(attempt-1))
	if exp > max {
		exp = max
	}
	// jitter up to 50%
	jitter := time.Duration(rand.Int63n(int64(exp) / 2))
	return exp - jitter
}

var (
	consumerQueueDepth    *prometheus.GaugeVec
	consumerQueueFullness *prometheus.GaugeVec
	consumerHandleLatency *prometheus.HistogramVec
	consumerMetricsOnce   sync.Once
	consumerRegisterer    prometheus.Registerer
)

// SetConsumerMetricsRegisterer overrides the Prometheus registerer used for
// consumer metrics. Useful in tests.
func SetConsumerMetricsRegisterer(reg prometheus.Registerer) { consumerRegisterer = reg }

func initConsumerMetrics() {
	consumerMetricsOnce.Do(func() {
		queueDepthOpts := prometheus.GaugeOpts{Name: "yieldscope_kafka_consumer_queue_depth", Help: "Number of messages waiting in consumer queue"}
		fullnessOpts := prometheus.GaugeOpts{Name: "yieldscope_kafka_consumer_queue_fullness", Help: "Queue utilization ratio (len/cap)"}
		latencyOpts := prometheus.HistogramOpts{Name: "yieldscope_kafka_consumer_handle_seconds", Help: "Handling time per message"}

		if consumerRegisterer != nil {
			consumerQueueDepth = prometheus.NewGaugeVec(queueDepthOpts, []string{"topic"})
			consumerQueueFullness = prometheus.NewGaugeVec(fullnessOpts, []string{"topic"})
			consumerHandleLatency = prometheus.NewHistogramVec(latencyOpts, []string{"topic"})
			consumerRegisterer.MustRegister(consumerQueueDepth, consumerQueueFullness, consumerHandleLatency)
			return
		}
		consumerQueueDepth = promauto.NewGaugeVec(queueDepthOpts, []string{"topic"})
		consumerQueueFullness = promauto.NewGaugeVec(fullnessOpts, []string{"topic"})
		consumerHandleLatency = promauto.NewHistogramVec(latencyOpts, []string{"topic"})
	})
}
