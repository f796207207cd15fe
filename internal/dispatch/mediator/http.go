// Package mediator performs the single outbound HTTP call of a dispatch,
// guarded by a per-host circuit breaker.
package mediator

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"go.aocore.tech/internal/common/metrics"
	"go.aocore.tech/internal/platform/common"
)

// Result classifies the outcome of a single outbound call.
type Result int

const (
	// ResultSuccess is a 2xx response.
	ResultSuccess Result = iota
	// ResultHTTPError is a non-2xx response.
	ResultHTTPError
	// ResultTimeout means the bounded window elapsed before a full response.
	ResultTimeout
	// ResultConnection covers dial, TLS and mid-body transport failures.
	ResultConnection
	// ResultCircuitOpen means the call was not attempted because the host's breaker is open.
	ResultCircuitOpen
	// ResultInvalidRequest means the request could not be built.
	ResultInvalidRequest
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultHTTPError:
		return "http_error"
	case ResultTimeout:
		return "timeout"
	case ResultConnection:
		return "connection"
	case ResultCircuitOpen:
		return "circuit_open"
	case ResultInvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// DefaultMaxResponseBytes bounds how much of a response body is read.
const DefaultMaxResponseBytes = 1 << 20

// Request is one outbound POST.
type Request struct {
	URL     string
	Body    []byte
	Headers map[string]string
	Timeout time.Duration
}

// Outcome is the classified result of Send.
type Outcome struct {
	Result     Result
	StatusCode int
	Body       []byte
	// Truncated is set when the body exceeded the configured limit.
	Truncated bool
	Duration  time.Duration
	Error     error
}

// HTTPVersion represents the HTTP protocol version to use
type HTTPVersion string

const (
	// HTTPVersion1 forces HTTP/1.1
	HTTPVersion1 HTTPVersion = "HTTP_1_1"
	// HTTPVersion2 enables HTTP/2
	HTTPVersion2 HTTPVersion = "HTTP_2"
)

// HTTPMediatorConfig configures the HTTP mediator
type HTTPMediatorConfig struct {
	// DefaultTimeout applies when a Request carries no timeout.
	DefaultTimeout time.Duration

	HTTPVersion HTTPVersion

	MaxResponseBytes int64

	// CircuitBreaker settings, applied per target host
	CircuitBreakerEnabled     bool
	CircuitBreakerRequests    uint32        // Requests allowed while half-open
	CircuitBreakerInterval    time.Duration // Stats window
	CircuitBreakerRatio       float64       // Failure ratio to trip
	CircuitBreakerTimeout     time.Duration // Time in open state before half-open
	CircuitBreakerMinRequests uint32        // Min requests before evaluating ratio
}

// DefaultHTTPMediatorConfig returns defaults for production
func DefaultHTTPMediatorConfig() *HTTPMediatorConfig {
	return &HTTPMediatorConfig{
		DefaultTimeout:            30 * time.Second,
		HTTPVersion:               HTTPVersion2,
		MaxResponseBytes:          DefaultMaxResponseBytes,
		CircuitBreakerEnabled:     true,
		CircuitBreakerRequests:    3,
		CircuitBreakerInterval:    60 * time.Second,
		CircuitBreakerRatio:       0.5,
		CircuitBreakerTimeout:     30 * time.Second,
		CircuitBreakerMinRequests: 10,
	}
}

// HTTPMediator sends dispatch requests. It never retries: one Send is one attempt.
type HTTPMediator struct {
	client *http.Client
	cfg    HTTPMediatorConfig

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// errUnhealthyResponse marks a 5xx for the circuit breaker's failure count.
var errUnhealthyResponse = errors.New("unhealthy response")

// NewHTTPMediator creates a new HTTP mediator
func NewHTTPMediator(cfg *HTTPMediatorConfig) *HTTPMediator {
	if cfg == nil {
		cfg = DefaultHTTPMediatorConfig()
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 30 * time.Second
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	if cfg.HTTPVersion == HTTPVersion1 {
		transport.ForceAttemptHTTP2 = false
		transport.TLSNextProto = make(map[string]func(authority string, c *tls.Conn) http.RoundTripper)
		slog.Info("HTTP mediator configured", "version", "HTTP/1.1")
	} else {
		transport.ForceAttemptHTTP2 = true
		slog.Info("HTTP mediator configured", "version", "HTTP/2")
	}

	return &HTTPMediator{
		// Timeouts are per request, via context.
		client:   &http.Client{Transport: transport},
		cfg:      *cfg,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// breakerFor returns the circuit breaker for host, creating it on first use.
func (m *HTTPMediator) breakerFor(host string) *gobreaker.CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cb, ok := m.breakers[host]; ok {
		return cb
	}

	cfg := m.cfg
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: cfg.CircuitBreakerRequests,
		Interval:    cfg.CircuitBreakerInterval,
		Timeout:     cfg.CircuitBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.CircuitBreakerMinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.CircuitBreakerRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Info("Circuit breaker state changed",
				"host", name,
				"from", from.String(),
				"to", to.String())

			var stateValue float64
			switch to {
			case gobreaker.StateClosed:
				stateValue = float64(metrics.CircuitBreakerClosed)
			case gobreaker.StateOpen:
				stateValue = float64(metrics.CircuitBreakerOpen)
				metrics.MediatorCircuitBreakerTrips.WithLabelValues(name).Inc()
			case gobreaker.StateHalfOpen:
				stateValue = float64(metrics.CircuitBreakerHalfOpen)
			}
			metrics.MediatorCircuitBreakerState.WithLabelValues(name).Set(stateValue)
		},
	})
	metrics.MediatorCircuitBreakerState.WithLabelValues(host).Set(float64(metrics.CircuitBreakerClosed))
	m.breakers[host] = cb
	return cb
}

// Send performs one POST. ctx bounds the call together with req.Timeout.
func (m *HTTPMediator) Send(ctx context.Context, req Request) *Outcome {
	host := hostOf(req.URL)

	if !m.cfg.CircuitBreakerEnabled || host == "" {
		return m.executeOnce(ctx, req, host)
	}

	result, err := m.breakerFor(host).Execute(func() (interface{}, error) {
		outcome := m.executeOnce(ctx, req, host)
		switch {
		case outcome.Result == ResultTimeout || outcome.Result == ResultConnection:
			return outcome, outcome.Error
		case outcome.Result == ResultHTTPError && outcome.StatusCode >= 500:
			return outcome, errUnhealthyResponse
		}
		return outcome, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		slog.WarnContext(ctx, "Circuit breaker open, request not sent",
			"host", host,
			"target", req.URL)
		return &Outcome{
			Result: ResultCircuitOpen,
			Error:  fmt.Errorf("circuit breaker open for %s: %w", host, err),
		}
	}

	outcome, _ := result.(*Outcome)
	return outcome
}

func (m *HTTPMediator) executeOnce(ctx context.Context, req Request, host string) *Outcome {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = m.cfg.DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return &Outcome{
			Result: ResultInvalidRequest,
			Error:  fmt.Errorf("failed to create request: %w", err),
		}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	common.PropagateTracingHeaders(ctx, httpReq)

	slog.DebugContext(ctx, "Executing HTTP request",
		"target", req.URL,
		"timeout", timeout)

	startTime := time.Now()
	resp, err := m.client.Do(httpReq)
	if err != nil {
		duration := time.Since(startTime)
		metrics.MediatorHTTPDuration.WithLabelValues(host).Observe(duration.Seconds())
		metrics.MediatorHTTPRequests.WithLabelValues("error", http.MethodPost).Inc()
		return m.handleError(ctx, req.URL, err, duration)
	}
	defer resp.Body.Close()

	body, truncated, readErr := readLimited(resp.Body, m.cfg.MaxResponseBytes)
	duration := time.Since(startTime)

	metrics.MediatorHTTPDuration.WithLabelValues(host).Observe(duration.Seconds())
	metrics.MediatorHTTPRequests.WithLabelValues(strconv.Itoa(resp.StatusCode), http.MethodPost).Inc()

	if readErr != nil {
		outcome := m.handleError(ctx, req.URL, fmt.Errorf("read response body: %w", readErr), duration)
		outcome.StatusCode = resp.StatusCode
		return outcome
	}

	slog.DebugContext(ctx, "HTTP response received",
		"statusCode", resp.StatusCode,
		"bodyLen", len(body),
		"duration", duration)

	return handleResponse(resp.StatusCode, body, truncated, duration)
}

func readLimited(r io.Reader, limit int64) ([]byte, bool, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > limit {
		return body[:limit], true, nil
	}
	return body, false, nil
}

// handleError classifies transport failures.
func (m *HTTPMediator) handleError(ctx context.Context, target string, err error, duration time.Duration) *Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		slog.WarnContext(ctx, "Request timeout", "target", target, "error", err)
		return &Outcome{Result: ResultTimeout, Error: err, Duration: duration}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		slog.WarnContext(ctx, "Network timeout", "target", target, "error", err)
		return &Outcome{Result: ResultTimeout, Error: err, Duration: duration}
	}

	if errors.Is(err, context.Canceled) {
		return &Outcome{Result: ResultConnection, Error: err, Duration: duration}
	}

	slog.WarnContext(ctx, "Network error",
		"target", target,
		"error", err,
		"refused", strings.Contains(err.Error(), "connection refused"))
	return &Outcome{Result: ResultConnection, Error: err, Duration: duration}
}

// handleResponse classifies a fully read response.
func handleResponse(statusCode int, body []byte, truncated bool, duration time.Duration) *Outcome {
	outcome := &Outcome{
		StatusCode: statusCode,
		Body:       body,
		Truncated:  truncated,
		Duration:   duration,
	}
	if statusCode >= 200 && statusCode < 300 {
		outcome.Result = ResultSuccess
	} else {
		outcome.Result = ResultHTTPError
	}
	return outcome
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
