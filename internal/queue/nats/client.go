package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"go.aocore.tech/internal/queue"
)

const defaultStreamName = "AOCORE_EXECUTIONS"

// Publisher publishes messages to NATS JetStream
type Publisher struct {
	js     jetstream.JetStream
	stream string
}

// NewPublisher creates a new NATS publisher
func NewPublisher(js jetstream.JetStream, streamName string) *Publisher {
	return &Publisher{
		js:     js,
		stream: streamName,
	}
}

// Publish sends a message, carrying group, dedup id and metadata as headers.
func (p *Publisher) Publish(ctx context.Context, msg *queue.Message) error {
	_, err := p.js.PublishMsg(ctx, toNATSMsg(msg))
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Close closes the publisher
func (p *Publisher) Close() error {
	// Nothing to close for the publisher itself
	return nil
}

func toNATSMsg(msg *queue.Message) *nats.Msg {
	out := &nats.Msg{
		Subject: msg.Subject,
		Data:    msg.Data,
		Header:  make(nats.Header),
	}
	if msg.MessageGroup != "" {
		out.Header.Set("Nats-Msg-Group", msg.MessageGroup)
	}
	// JetStream uses Nats-Msg-Id for deduplication
	if msg.DeduplicationID != "" {
		out.Header.Set(jetstream.MsgIDHeader, msg.DeduplicationID)
	}
	for k, v := range msg.Metadata {
		out.Header.Set("X-Meta-"+k, v)
	}
	return out
}

// Client wraps a connection to an external NATS server
type Client struct {
	conn      *nats.Conn
	js        jetstream.JetStream
	publisher *Publisher
}

// NewClient connects to cfg.URL and makes sure the event stream exists.
func NewClient(ctx context.Context, cfg *queue.NATSConfig) (*Client, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	conn, err := connect(url)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streamName := cfg.StreamName
	if streamName == "" {
		streamName = defaultStreamName
	}

	if err := ensureStream(ctx, js, streamConfig(streamName, cfg.Subjects, cfg.MaxAge, jetstream.FileStorage, 0)); err != nil {
		conn.Close()
		return nil, err
	}

	return &Client{
		conn:      conn,
		js:        js,
		publisher: NewPublisher(js, streamName),
	}, nil
}

// Publisher returns the client's publisher
func (c *Client) Publisher() queue.Publisher {
	return c.publisher
}

// Connection returns the NATS connection for health checks
func (c *Client) Connection() *nats.Conn {
	return c.conn
}

// Close drains and closes the connection
func (c *Client) Close() error {
	if err := c.conn.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		c.conn.Close()
		return err
	}
	return nil
}

func connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("aocore"),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

func streamConfig(name string, subjects []string, maxAge time.Duration, storage jetstream.StorageType, replicas int) jetstream.StreamConfig {
	if len(subjects) == 0 {
		subjects = []string{"aocore.execution.>"}
	}
	if replicas <= 0 {
		replicas = 1
	}
	return jetstream.StreamConfig{
		Name:       name,
		Subjects:   subjects,
		Storage:    storage,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     maxAge,
		Replicas:   replicas,
		Discard:    jetstream.DiscardOld,
		MaxMsgs:    -1,
		MaxBytes:   -1,
		Duplicates: 2 * time.Minute,
	}
}

// ensureStream creates or updates the JetStream stream
func ensureStream(ctx context.Context, js jetstream.JetStream, cfg jetstream.StreamConfig) error {
	_, err := js.Stream(ctx, cfg.Name)
	if err != nil {
		if !errors.Is(err, jetstream.ErrStreamNotFound) {
			return fmt.Errorf("failed to look up stream: %w", err)
		}
		if _, err := js.CreateStream(ctx, cfg); err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
		slog.Info("Created JetStream stream", "stream", cfg.Name, "subjects", cfg.Subjects)
		return nil
	}

	if _, err := js.UpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("failed to update stream: %w", err)
	}
	slog.Info("Updated JetStream stream", "stream", cfg.Name)
	return nil
}
