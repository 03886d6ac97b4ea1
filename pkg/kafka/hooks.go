package kafka

import (
	"context"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// ConsumerHook wraps message handling with lifecycle callbacks. A non-nil
// error from BeforeHandle skips the handler and goes straight to error
// processing (OnError, DLQ, offset commit).
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
	AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
	OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
}

// NoopHook does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return ctx, km, data, nil
}

func (NoopHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
}

func (NoopHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
}

type startTimeKey struct{}

// LoggingHook logs per-message handling latency and failures.
type LoggingHook struct{}

func (LoggingHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return context.WithValue(ctx, startTimeKey{}, time.Now()), km, data, nil
}

func (LoggingHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	if err != nil {
		return
	}
	if start, ok := ctx.Value(startTimeKey{}).(time.Time); ok {
		log.Printf("kafka consumer: handled topic=%s partition=%d offset=%d in %s",
			topic, km.Partition, km.Offset, time.Since(start))
	}
}

func (LoggingHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	log.Printf("kafka consumer: handling failed topic=%s partition=%d offset=%d: %v",
		topic, km.Partition, km.Offset, err)
}
