package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// ShutdownTimeout bounds how long Run waits for services after a signal.
const ShutdownTimeout = 35 * time.Second

// Run starts services and blocks until shutdown signal is received.
// This is the main loop of the aocore binary.
//
// Usage:
//
//	lifecycle.Run(ctx, httpService, sweeperService)
func Run(ctx context.Context, services ...Service) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	supervisor := NewSupervisor(services...)

	errCh := make(chan error, 1)
	go func() {
		errCh <- supervisor.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			slog.Error("Supervisor error", "error", err)
		}
		return err
	}

	// Wait for supervisor to complete shutdown
	select {
	case err := <-errCh:
		return err
	case <-time.After(ShutdownTimeout):
		slog.Error("Shutdown timed out")
		return nil
	}
}

// HTTPService wraps an http.Server as a Service.
type HTTPService struct {
	server  *http.Server
	name    string
	serving atomic.Bool

	ready     chan struct{}
	readyOnce sync.Once
}

// NewHTTPService creates a Service from an http.Server.
func NewHTTPService(name string, server *http.Server) *HTTPService {
	return &HTTPService{
		server: server,
		name:   name,
		ready:  make(chan struct{}),
	}
}

func (s *HTTPService) Name() string { return s.name }

// Ready is closed once the listener is bound.
func (s *HTTPService) Ready() <-chan struct{} { return s.ready }

// Start binds the listener synchronously so a busy port fails startup,
// then serves until ctx is cancelled.
func (s *HTTPService) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	slog.Info("Starting HTTP server", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	s.serving.Store(true)
	s.readyOnce.Do(func() { close(s.ready) })
	go func() {
		defer s.serving.Store(false)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

func (s *HTTPService) Stop(ctx context.Context) error {
	slog.Info("Stopping HTTP server", "service", s.name)
	return s.server.Shutdown(ctx)
}

func (s *HTTPService) Health() error {
	if !s.serving.Load() {
		return errors.New("not serving")
	}
	return nil
}
