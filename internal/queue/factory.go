package queue

import (
	"context"
	"time"

	"go.aocore.tech/internal/common/metrics"
)

// QueueType defines the type of queue implementation
type QueueType string

const (
	QueueTypeEmbedded QueueType = "embedded" // Embedded NATS for dev
	QueueTypeNATS     QueueType = "nats"     // External NATS
	QueueTypeSQS      QueueType = "sqs"      // AWS SQS
	QueueTypeNone     QueueType = "none"     // Events disabled
)

// DefaultConfig returns default queue configuration
func DefaultConfig() *Config {
	return &Config{
		Type:    string(QueueTypeEmbedded),
		DataDir: "./data/nats",
		NATS: NATSConfig{
			URL:        "nats://localhost:4222",
			Port:       4222,
			StreamName: "AOCORE_EXECUTIONS",
			Subjects:   []string{"aocore.execution.>"},
			MaxAge:     7 * 24 * time.Hour,
		},
		SQS: SQSConfig{
			Region: "us-east-1",
		},
	}
}

// ParseType normalizes the configured type; an empty value means embedded.
func ParseType(s string) (QueueType, bool) {
	switch QueueType(s) {
	case "":
		return QueueTypeEmbedded, true
	case QueueTypeEmbedded, QueueTypeNATS, QueueTypeSQS, QueueTypeNone:
		return QueueType(s), true
	}
	return "", false
}

// Instrument wraps a publisher with per-subject publish counters.
func Instrument(p Publisher) Publisher {
	return &instrumentedPublisher{inner: p}
}

type instrumentedPublisher struct {
	inner Publisher
}

func (p *instrumentedPublisher) Publish(ctx context.Context, msg *Message) error {
	if err := p.inner.Publish(ctx, msg); err != nil {
		metrics.QueuePublishErrors.WithLabelValues(msg.Subject).Inc()
		return err
	}
	metrics.QueueMessagesPublished.WithLabelValues(msg.Subject).Inc()
	return nil
}

func (p *instrumentedPublisher) Close() error {
	return p.inner.Close()
}
