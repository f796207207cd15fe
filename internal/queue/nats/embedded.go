// Package nats provides the NATS JetStream event publisher, against an
// external server or an embedded one for local development.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"go.aocore.tech/internal/queue"
)

// EmbeddedServer wraps an embedded NATS server with JetStream
type EmbeddedServer struct {
	server    *server.Server
	conn      *nats.Conn
	js        jetstream.JetStream
	dataDir   string
	publisher *Publisher
}

// EmbeddedConfig holds configuration for the embedded NATS server
type EmbeddedConfig struct {
	// DataDir is the directory for JetStream data persistence
	DataDir string

	// Host is the bind address (default: 127.0.0.1)
	Host string

	// Port is the server port; -1 picks a random free port
	Port int

	StreamName string
	Subjects   []string
	MaxAge     time.Duration
}

// DefaultEmbeddedConfig returns default embedded server configuration
func DefaultEmbeddedConfig() *EmbeddedConfig {
	return &EmbeddedConfig{
		DataDir:    "./data/nats",
		Host:       "127.0.0.1",
		Port:       4222,
		StreamName: defaultStreamName,
		Subjects:   []string{"aocore.execution.>"},
		MaxAge:     7 * 24 * time.Hour,
	}
}

// EmbeddedConfigFrom maps queue configuration onto the embedded server.
func EmbeddedConfigFrom(cfg *queue.Config) *EmbeddedConfig {
	out := DefaultEmbeddedConfig()
	if cfg.DataDir != "" {
		out.DataDir = cfg.DataDir
	}
	if cfg.NATS.Port != 0 {
		out.Port = cfg.NATS.Port
	}
	if cfg.NATS.StreamName != "" {
		out.StreamName = cfg.NATS.StreamName
	}
	if len(cfg.NATS.Subjects) > 0 {
		out.Subjects = cfg.NATS.Subjects
	}
	if cfg.NATS.MaxAge > 0 {
		out.MaxAge = cfg.NATS.MaxAge
	}
	return out
}

// NewEmbeddedServer creates and starts a new embedded NATS server
func NewEmbeddedServer(ctx context.Context, cfg *EmbeddedConfig) (*EmbeddedServer, error) {
	if cfg == nil {
		cfg = DefaultEmbeddedConfig()
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	opts := &server.Options{
		Host:      cfg.Host,
		Port:      cfg.Port,
		JetStream: true,
		StoreDir:  cfg.DataDir,
		NoLog:     true,
		NoSigs:    true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server failed to start within timeout")
	}

	slog.Info("Embedded NATS server started", "url", ns.ClientURL(), "dataDir", cfg.DataDir)

	conn, err := connect(ns.ClientURL())
	if err != nil {
		ns.Shutdown()
		return nil, err
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		ns.Shutdown()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	embedded := &EmbeddedServer{
		server:  ns,
		conn:    conn,
		js:      js,
		dataDir: cfg.DataDir,
	}

	if err := ensureStream(ctx, js, streamConfig(cfg.StreamName, cfg.Subjects, cfg.MaxAge, jetstream.FileStorage, 1)); err != nil {
		embedded.Close()
		return nil, err
	}

	embedded.publisher = NewPublisher(js, cfg.StreamName)
	return embedded, nil
}

// Publisher returns the embedded server's publisher
func (e *EmbeddedServer) Publisher() queue.Publisher {
	return e.publisher
}

// JetStream returns the JetStream context
func (e *EmbeddedServer) JetStream() jetstream.JetStream {
	return e.js
}

// Connection returns the NATS connection
func (e *EmbeddedServer) Connection() *nats.Conn {
	return e.conn
}

// Close shuts down the embedded server
func (e *EmbeddedServer) Close() error {
	slog.Info("Shutting down embedded NATS server")

	if e.conn != nil {
		e.conn.Close()
	}

	if e.server != nil {
		e.server.Shutdown()
		e.server.WaitForShutdown()
	}

	// Clean up lock file if it exists
	lockFile := filepath.Join(e.dataDir, "jetstream", "lock.lck")
	if _, err := os.Stat(lockFile); err == nil {
		os.Remove(lockFile)
	}

	return nil
}
