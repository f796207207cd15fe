// Package queue publishes execution lifecycle events to a message broker.
package queue

import (
	"context"
	"time"
)

// Message is one outbound event.
type Message struct {
	Subject string
	Data    []byte

	// MessageGroup orders related messages (SQS FIFO group, NATS header).
	MessageGroup string

	// DeduplicationID lets the broker drop re-publishes of the same event.
	DeduplicationID string

	Metadata map[string]string
}

// Publisher publishes messages to a queue
type Publisher interface {
	// Publish sends a message. Implementations must be safe for concurrent use.
	Publish(ctx context.Context, msg *Message) error

	// Close closes the publisher
	Close() error
}

// Config holds queue configuration
type Config struct {
	// Type is the queue implementation type: "embedded", "nats", "sqs", "none"
	Type string `toml:"type"`

	// DataDir is the data directory for embedded NATS
	DataDir string `toml:"data_dir"`

	NATS NATSConfig `toml:"nats"`
	SQS  SQSConfig  `toml:"sqs"`
}

// NATSConfig holds NATS-specific configuration
type NATSConfig struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222")
	URL string `toml:"url"`

	// Port is the embedded server port
	Port int `toml:"port"`

	// StreamName is the JetStream stream name
	StreamName string `toml:"stream_name"`

	// Subjects captured by the stream
	Subjects []string `toml:"subjects"`

	// MaxAge is the maximum age of messages in the stream
	MaxAge time.Duration `toml:"max_age"`
}

// SQSConfig holds AWS SQS-specific configuration
type SQSConfig struct {
	QueueURL string `toml:"queue_url"`
	Region   string `toml:"region"`

	// Endpoint overrides the SQS endpoint (LocalStack)
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

// MessageBuilder helps construct messages for publishing
type MessageBuilder struct {
	msg Message
}

// NewMessageBuilder creates a new message builder
func NewMessageBuilder(subject string) *MessageBuilder {
	return &MessageBuilder{msg: Message{
		Subject:  subject,
		Metadata: make(map[string]string),
	}}
}

// WithData sets the message payload
func (b *MessageBuilder) WithData(data []byte) *MessageBuilder {
	b.msg.Data = data
	return b
}

// WithMessageGroup sets the message group for ordered processing
func (b *MessageBuilder) WithMessageGroup(group string) *MessageBuilder {
	b.msg.MessageGroup = group
	return b
}

// WithDeduplicationID sets the deduplication ID
func (b *MessageBuilder) WithDeduplicationID(id string) *MessageBuilder {
	b.msg.DeduplicationID = id
	return b
}

// WithMetadata adds metadata to the message
func (b *MessageBuilder) WithMetadata(key, value string) *MessageBuilder {
	if value != "" {
		b.msg.Metadata[key] = value
	}
	return b
}

// Build returns the assembled message.
func (b *MessageBuilder) Build() *Message {
	msg := b.msg
	return &msg
}

// NoopPublisher drops every message. Used when QUEUE_TYPE=none.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *Message) error { return nil }
func (NoopPublisher) Close() error                            { return nil }

var _ Publisher = NoopPublisher{}
