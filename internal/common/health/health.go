// Package health serves the /q/health endpoints.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Status represents the health status of a component
type Status string

const (
	StatusUp   Status = "UP"
	StatusDown Status = "DOWN"
)

// DefaultCheckTimeout bounds each check when the checker has no timeout set.
const DefaultCheckTimeout = 2 * time.Second

// Check represents a single health check
type Check struct {
	Name   string         `json:"name"`
	Status Status         `json:"status"`
	Data   map[string]any `json:"data,omitempty"`
}

// HealthResponse represents the health endpoint response
type HealthResponse struct {
	Status Status  `json:"status"`
	Checks []Check `json:"checks,omitempty"`
}

// CheckFunc performs a health check. ctx carries the per-check deadline.
type CheckFunc func(ctx context.Context) Check

// Checker manages health checks for the application
type Checker struct {
	mu              sync.RWMutex
	livenessChecks  []CheckFunc
	readinessChecks []CheckFunc
	timeout         time.Duration
}

// NewChecker creates a new health checker
func NewChecker() *Checker {
	return &Checker{timeout: DefaultCheckTimeout}
}

// SetTimeout changes the per-check deadline.
func (c *Checker) SetTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = d
}

// AddLivenessCheck adds a liveness check
func (c *Checker) AddLivenessCheck(check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.livenessChecks = append(c.livenessChecks, check)
}

// AddReadinessCheck adds a readiness check
func (c *Checker) AddReadinessCheck(check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readinessChecks = append(c.readinessChecks, check)
}

// runChecks runs checks concurrently; results keep registration order.
func (c *Checker) runChecks(ctx context.Context, checks []CheckFunc) HealthResponse {
	c.mu.RLock()
	timeout := c.timeout
	c.mu.RUnlock()

	results := make([]Check, len(checks))
	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			results[i] = check(checkCtx)
		}()
	}
	wg.Wait()

	response := HealthResponse{Status: StatusUp, Checks: results}
	for _, check := range results {
		if check.Status == StatusDown {
			response.Status = StatusDown
		}
	}
	return response
}

func (c *Checker) snapshot(live, ready bool) []CheckFunc {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []CheckFunc
	if live {
		out = append(out, c.livenessChecks...)
	}
	if ready {
		out = append(out, c.readinessChecks...)
	}
	return out
}

// GetLiveness returns the liveness status
func (c *Checker) GetLiveness(ctx context.Context) HealthResponse {
	return c.runChecks(ctx, c.snapshot(true, false))
}

// GetReadiness returns the readiness status
func (c *Checker) GetReadiness(ctx context.Context) HealthResponse {
	return c.runChecks(ctx, c.snapshot(false, true))
}

// GetHealth returns the combined health status
func (c *Checker) GetHealth(ctx context.Context) HealthResponse {
	return c.runChecks(ctx, c.snapshot(true, true))
}

// HandleHealth handles the /q/health endpoint
func (c *Checker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, c.GetHealth(r.Context()))
}

// HandleLive handles the /q/health/live endpoint
func (c *Checker) HandleLive(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, c.GetLiveness(r.Context()))
}

// HandleReady handles the /q/health/ready endpoint
func (c *Checker) HandleReady(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, c.GetReadiness(r.Context()))
}

func writeResponse(w http.ResponseWriter, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")

	if response.Status == StatusDown {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Warn("Failed to encode health response", "error", err)
	}
}

// errorCheck reports name as DOWN with err, or UP when err is nil.
func errorCheck(name string, err error) Check {
	if err != nil {
		return Check{
			Name:   name,
			Status: StatusDown,
			Data:   map[string]any{"error": err.Error()},
		}
	}
	return Check{Name: name, Status: StatusUp}
}

// MongoDBCheck creates a health check for MongoDB
func MongoDBCheck(ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		return errorCheck("MongoDB", ping(ctx))
	}
}

// RedisCheck creates a health check for the Redis connection
func RedisCheck(client redis.UniversalClient) CheckFunc {
	return func(ctx context.Context) Check {
		return errorCheck("Redis", client.Ping(ctx).Err())
	}
}

// NATSCheck creates a health check for NATS
func NATSCheck(isConnected func() bool) CheckFunc {
	return func(context.Context) Check {
		if !isConnected() {
			return Check{Name: "NATS", Status: StatusDown}
		}
		return Check{Name: "NATS", Status: StatusUp}
	}
}

// SQSCheck creates a health check for AWS SQS
// The checkFunc should call GetQueueAttributes to verify queue accessibility
func SQSCheck(checkFunc func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		return errorCheck("SQS", checkFunc(ctx))
	}
}

// ServiceCheck reports a supervised service; data adds detail such as leadership.
func ServiceCheck(name string, healthy func() error, data func() map[string]any) CheckFunc {
	return func(context.Context) Check {
		check := errorCheck(name, healthy())
		if data != nil {
			if check.Data == nil {
				check.Data = map[string]any{}
			}
			for k, v := range data() {
				check.Data[k] = v
			}
		}
		return check
	}
}
