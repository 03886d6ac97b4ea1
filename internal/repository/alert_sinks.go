package repository

import (
	"context"

	"YieldScope/internal/domain/models"
	pkghttp "YieldScope/pkg/http"
	pkgkafka "YieldScope/pkg/kafka"
)

// KafkaAlertSink publishes alerts to a Kafka topic keyed by instrument so
// that per-instrument ordering is preserved.
type KafkaAlertSink struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaAlertSink(producer *pkgkafka.Producer, topic string) *KafkaAlertSink {
	return &KafkaAlertSink{producer: producer, topic: topic}
}

func (s *KafkaAlertSink) Deliver(ctx context.Context, a *models.Alert) error {
	return s.producer.Publish(ctx, s.topic, []byte(a.InstrumentID), a)
}

func (s *KafkaAlertSink) Name() string { return "kafka" }

func (s *KafkaAlertSink) Close() error { return s.producer.Close() }

// WebhookAlertSink POSTs alerts to a configured HTTP endpoint.
type WebhookAlertSink struct {
	client *pkghttp.Client
	url    string
}

func NewWebhookAlertSink(client *pkghttp.Client, url string) *WebhookAlertSink {
	return &WebhookAlertSink{client: client, url: url}
}

func (s *WebhookAlertSink) Deliver(ctx context.Context, a *models.Alert) error {
	return s.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    s.url,
		Body:   a,
	}, nil)
}

func (s *WebhookAlertSink) Name() string { return "webhook" }

func (s *WebhookAlertSink) Close() error { return nil }
