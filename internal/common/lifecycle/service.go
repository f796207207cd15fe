// Package lifecycle provides infrastructure for managing application services
// with coordinated startup, shutdown, and health monitoring.
//
// Each long-running component (the HTTP API, the stale execution sweeper)
// implements Service so it can be supervised and stopped in order.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Service represents a startable/stoppable component.
type Service interface {
	// Name returns the service identifier for logging
	Name() string

	// Start begins the service. It should block until ctx is cancelled
	// or return an error if startup fails.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the service.
	// Should complete within the given timeout.
	Stop(ctx context.Context) error

	// Health returns nil if the service is healthy, error otherwise.
	// Used by supervisors and health endpoints.
	Health() error
}

// ReadyReporter is implemented by services that know when startup is done.
// The supervisor counts such a service as started once Ready is closed
// instead of waiting out StartupGrace.
type ReadyReporter interface {
	Ready() <-chan struct{}
}

// StartupGrace is how long a service without a Ready signal has to fail
// before it counts as started.
const StartupGrace = 100 * time.Millisecond

// Supervisor manages multiple services with coordinated lifecycle.
type Supervisor struct {
	services    []Service
	stopTimeout time.Duration

	mu      sync.RWMutex
	running bool
}

// NewSupervisor creates a supervisor for the given services.
func NewSupervisor(services ...Service) *Supervisor {
	return &Supervisor{
		services:    services,
		stopTimeout: 30 * time.Second,
	}
}

// Run starts all services and blocks until ctx is cancelled or a running
// service exits with an error. Services are started in order and stopped in
// reverse order; the returned error is the service failure, if any.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("supervisor already running")
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	failed := make(chan error, len(s.services))
	var started []Service

	for _, svc := range s.services {
		slog.Info("Starting service", "service", svc.Name())

		var ready <-chan struct{}
		var grace <-chan time.Time
		if r, ok := svc.(ReadyReporter); ok {
			ready = r.Ready()
		} else {
			grace = time.After(StartupGrace)
		}

		errCh := make(chan error, 1)
		go func(service Service) {
			errCh <- service.Start(ctx)
		}(svc)

		select {
		case err := <-errCh:
			running := err == nil || ctx.Err() != nil || isClosed(ready)
			if !running {
				s.stopServices(started)
				return fmt.Errorf("service %s failed to start: %w", svc.Name(), err)
			}
			// Returned early, but it may hold resources (locks, listeners)
			// acquired before returning; it is still stopped on shutdown.
			started = append(started, svc)
			if err != nil && ctx.Err() == nil {
				failed <- fmt.Errorf("service %s stopped: %w", svc.Name(), err)
			} else {
				slog.Info("Service completed", "service", svc.Name())
			}
			continue
		case <-ready:
		case <-grace:
		}

		go func(service Service) {
			if err := <-errCh; err != nil && ctx.Err() == nil {
				failed <- fmt.Errorf("service %s stopped: %w", service.Name(), err)
			}
		}(svc)

		started = append(started, svc)
		slog.Info("Service started", "service", svc.Name())
	}

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping services")
	case runErr = <-failed:
		slog.Error("Service failed, shutting down", "error", runErr)
	}
	cancel()

	s.stopServices(started)
	return runErr
}

func isClosed(ch <-chan struct{}) bool {
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// stopServices stops services in reverse order
func (s *Supervisor) stopServices(services []Service) {
	for i := len(services) - 1; i >= 0; i-- {
		svc := services[i]
		slog.Info("Stopping service", "service", svc.Name())

		stopCtx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
		if err := svc.Stop(stopCtx); err != nil {
			slog.Error("Service stop error", "service", svc.Name(), "error", err)
		} else {
			slog.Info("Service stopped", "service", svc.Name())
		}
		cancel()
	}
}

// Health returns the health status of all services.
// Returns nil only if ALL services are healthy.
func (s *Supervisor) Health() error {
	var errs []error
	for _, svc := range s.services {
		if err := svc.Health(); err != nil {
			errs = append(errs, fmt.Errorf("service %s unhealthy: %w", svc.Name(), err))
		}
	}
	return errors.Join(errs...)
}
