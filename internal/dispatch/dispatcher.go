// Package dispatch resolves a workflow endpoint, records the attempt in the
// execution ledger and performs the outbound call.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.aocore.tech/internal/common/metrics"
	"go.aocore.tech/internal/common/repository"
	"go.aocore.tech/internal/dispatch/mediator"
	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/platform/execution"
	"go.aocore.tech/internal/platform/webhook"
)

// EndpointResolver finds the active endpoint for a workflow.
type EndpointResolver interface {
	FindActive(ctx context.Context, workflowName string, brand *string) (*webhook.Endpoint, error)
}

// Sender performs one outbound call.
type Sender interface {
	Send(ctx context.Context, req mediator.Request) *mediator.Outcome
}

// ExecuteRequest is one dispatch request.
type ExecuteRequest struct {
	WorkflowName string         `json:"workflowName"`
	Payload      map[string]any `json:"payload"`
	Brand        *string        `json:"brand,omitempty"`
}

// ExecutionResult is returned for a successful dispatch.
type ExecutionResult struct {
	ExecutionID     string           `json:"executionId"`
	Status          execution.Status `json:"status"`
	OutputPayload   any              `json:"outputPayload"`
	ExecutionTimeMs int64            `json:"executionTimeMs"`
}

// Config tunes the dispatcher.
type Config struct {
	// DefaultTimeout bounds each outbound call unless the endpoint overrides it.
	DefaultTimeout time.Duration

	// MaxResponseBytes is the largest accepted response body.
	MaxResponseBytes int64

	// Terminal ledger writes get their own deadline and a bounded number of
	// attempts, independent of the caller's context.
	TerminalWriteTimeout  time.Duration
	TerminalWriteAttempts int
	TerminalWriteBackoff  time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout:        30 * time.Second,
		MaxResponseBytes:      mediator.DefaultMaxResponseBytes,
		TerminalWriteTimeout:  5 * time.Second,
		TerminalWriteAttempts: 3,
		TerminalWriteBackoff:  200 * time.Millisecond,
	}
}

// Dispatcher ties registry resolution, ledger bookkeeping and the outbound
// call together. Every attempt that reaches the ledger is driven to a
// terminal state before Execute returns.
type Dispatcher struct {
	endpoints EndpointResolver
	ledger    *execution.Ledger
	sender    Sender
	signer    *Signer
	notifier  *execution.Notifier
	cfg       Config
	now       func() time.Time
}

// NewDispatcher creates a Dispatcher. signer and notifier may be nil.
func NewDispatcher(endpoints EndpointResolver, ledger *execution.Ledger, sender Sender, signer *Signer, notifier *execution.Notifier, cfg Config) *Dispatcher {
	defaults := DefaultConfig()
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = defaults.DefaultTimeout
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = defaults.MaxResponseBytes
	}
	if cfg.TerminalWriteTimeout <= 0 {
		cfg.TerminalWriteTimeout = defaults.TerminalWriteTimeout
	}
	if cfg.TerminalWriteAttempts <= 0 {
		cfg.TerminalWriteAttempts = defaults.TerminalWriteAttempts
	}
	if cfg.TerminalWriteBackoff < 0 {
		cfg.TerminalWriteBackoff = 0
	}
	return &Dispatcher{
		endpoints: endpoints,
		ledger:    ledger,
		sender:    sender,
		signer:    signer,
		notifier:  notifier,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Execute dispatches req. Errors:
//   - *common.UseCaseError (validation) and *EndpointNotFoundError: nothing recorded
//   - *DispatchFailedError: remote answered non-2xx, record failed
//   - *TransportError: network, timeout or parse failure, record failed or timeout
//   - *LedgerWriteError: the outcome could not be recorded for an existing record
//   - anything else: the pending record could not be created
func (d *Dispatcher) Execute(ctx context.Context, req ExecuteRequest, execCtx *common.ExecutionContext) (*ExecutionResult, error) {
	workflowName := strings.TrimSpace(req.WorkflowName)
	if workflowName == "" {
		return nil, common.ValidationError(common.ErrCodeMissingWorkflowName, "workflowName is required", nil)
	}
	brand := webhook.NormalizeOptional(req.Brand)

	endpoint, err := d.endpoints.FindActive(ctx, workflowName, brand)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.DispatchExecutions.WithLabelValues(workflowName, "endpoint_not_found").Inc()
			return nil, &EndpointNotFoundError{WorkflowName: workflowName, Brand: brand}
		}
		return nil, fmt.Errorf("resolve endpoint for %s: %w", workflowName, err)
	}

	timeout := d.timeoutFor(endpoint)
	start := d.now()

	record, err := d.ledger.BeginWithDeadline(ctx, endpoint.ID, execCtx.UserID(), req.Payload, timeout)
	if err != nil {
		metrics.DispatchExecutions.WithLabelValues(workflowName, "ledger_error").Inc()
		return nil, err
	}

	// The attempt is now observable; it must not be abandoned with the caller.
	runCtx := context.WithoutCancel(ctx)
	logger := slog.With(
		"executionId", record.ID,
		"workflowName", workflowName,
		"brand", endpoint.BrandValue(),
		"endpointId", endpoint.ID)

	metrics.DispatchInFlight.Inc()
	defer metrics.DispatchInFlight.Dec()

	attempt := &attempt{
		d:        d,
		logger:   logger,
		endpoint: endpoint,
		record:   record,
		start:    start,
		timeout:  timeout,
	}
	result, err := attempt.run(runCtx, req.Payload, Meta{
		ExecutionID:  record.ID,
		WorkflowName: workflowName,
		Brand:        endpoint.Brand,
		UserID:       record.UserID,
		Timestamp:    FormatTimestamp(start),
	})

	metrics.DispatchExecutions.WithLabelValues(workflowName, attempt.outcome).Inc()
	metrics.DispatchDuration.WithLabelValues(workflowName).Observe(d.now().Sub(start).Seconds())
	return result, err
}

func (d *Dispatcher) timeoutFor(endpoint *webhook.Endpoint) time.Duration {
	if override, ok := endpoint.TimeoutOverride(); ok {
		return override
	}
	return d.cfg.DefaultTimeout
}

// attempt carries the state of a single dispatch after the ledger row exists.
type attempt struct {
	d        *Dispatcher
	logger   *slog.Logger
	endpoint *webhook.Endpoint
	record   *execution.Record
	start    time.Time
	timeout  time.Duration
	outcome  string
}

func (a *attempt) elapsedMs() int64 {
	ms := a.d.now().Sub(a.start).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

func (a *attempt) run(ctx context.Context, payload map[string]any, meta Meta) (*ExecutionResult, error) {
	body, err := BuildEnvelope(payload, meta)
	if err != nil {
		return nil, a.failTransport(ctx, fmt.Errorf("encode request body: %w", err))
	}

	headers, err := a.d.signer.Headers(ctx, a.endpoint, a.record.ID, body)
	if err != nil {
		return nil, a.failTransport(ctx, err)
	}

	a.logger.InfoContext(ctx, "Dispatching workflow", "target", a.endpoint.TargetURL, "timeout", a.timeout)

	outcome := a.d.sender.Send(ctx, mediator.Request{
		URL:     a.endpoint.TargetURL,
		Body:    body,
		Headers: headers,
		Timeout: a.timeout,
	})

	switch outcome.Result {
	case mediator.ResultSuccess:
		return a.succeed(ctx, outcome)

	case mediator.ResultHTTPError:
		return nil, a.failHTTP(ctx, outcome)

	case mediator.ResultTimeout:
		return nil, a.timeOut(ctx, outcome.Error)

	default:
		cause := outcome.Error
		if cause == nil {
			cause = fmt.Errorf("request failed: %s", outcome.Result)
		}
		return nil, a.failTransport(ctx, cause)
	}
}

func (a *attempt) succeed(ctx context.Context, outcome *mediator.Outcome) (*ExecutionResult, error) {
	if outcome.Truncated {
		return nil, a.failTransport(ctx, fmt.Errorf("response body exceeds %d bytes", a.d.cfg.MaxResponseBytes))
	}

	output, err := parseOutput(outcome.Body)
	if err != nil {
		return nil, a.failTransport(ctx, err)
	}

	elapsed := a.elapsedMs()
	record, err := a.writeTerminal(ctx, func(wctx context.Context) (*execution.Record, error) {
		return a.d.ledger.Complete(wctx, a.record.ID, output, elapsed)
	})
	if err != nil {
		a.outcome = "ledger_error"
		return nil, err
	}

	a.outcome = string(execution.StatusSuccess)
	a.logger.InfoContext(ctx, "Workflow execution succeeded",
		"statusCode", outcome.StatusCode,
		"executionTimeMs", elapsed)
	a.d.notifier.Notify(ctx, record, a.endpoint.WorkflowName)

	return &ExecutionResult{
		ExecutionID:     record.ID,
		Status:          execution.StatusSuccess,
		OutputPayload:   output,
		ExecutionTimeMs: elapsed,
	}, nil
}

func (a *attempt) failHTTP(ctx context.Context, outcome *mediator.Outcome) error {
	text := strings.TrimSpace(string(outcome.Body))
	if outcome.Truncated {
		text += " [truncated]"
	}
	message := fmt.Sprintf("HTTP %d: %s", outcome.StatusCode, text)

	if err := a.terminal(ctx, execution.StatusFailed, message); err != nil {
		return err
	}
	a.logger.WarnContext(ctx, "Workflow execution failed", "statusCode", outcome.StatusCode)
	return &DispatchFailedError{ExecutionID: a.record.ID, StatusCode: outcome.StatusCode}
}

func (a *attempt) timeOut(ctx context.Context, cause error) error {
	message := fmt.Sprintf("timed out after %s", a.timeout)
	if err := a.terminal(ctx, execution.StatusTimeout, message); err != nil {
		return err
	}
	a.logger.WarnContext(ctx, "Workflow execution timed out", "timeout", a.timeout)
	if cause == nil {
		cause = errors.New(message)
	}
	return &TransportError{ExecutionID: a.record.ID, Cause: cause, Timeout: true}
}

func (a *attempt) failTransport(ctx context.Context, cause error) error {
	if err := a.terminal(ctx, execution.StatusFailed, cause.Error()); err != nil {
		return err
	}
	a.logger.WarnContext(ctx, "Workflow execution failed", "error", cause)
	return &TransportError{ExecutionID: a.record.ID, Cause: cause}
}

// terminal moves the record to failed or timeout and publishes the event.
func (a *attempt) terminal(ctx context.Context, status execution.Status, message string) error {
	elapsed := a.elapsedMs()
	record, err := a.writeTerminal(ctx, func(wctx context.Context) (*execution.Record, error) {
		if status == execution.StatusTimeout {
			return a.d.ledger.Timeout(wctx, a.record.ID, message, elapsed)
		}
		return a.d.ledger.Fail(wctx, a.record.ID, message, elapsed)
	})
	if err != nil {
		a.outcome = "ledger_error"
		return err
	}
	a.outcome = string(status)
	a.d.notifier.Notify(ctx, record, a.endpoint.WorkflowName)
	return nil
}

// writeTerminal retries transient storage failures. Guard violations and
// missing records are returned immediately.
func (a *attempt) writeTerminal(ctx context.Context, write func(context.Context) (*execution.Record, error)) (*execution.Record, error) {
	cfg := a.d.cfg
	var lastErr error
	for i := 1; i <= cfg.TerminalWriteAttempts; i++ {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.TerminalWriteTimeout)
		record, err := write(wctx)
		cancel()
		if err == nil {
			return record, nil
		}
		if errors.Is(err, repository.ErrInvalidState) || errors.Is(err, repository.ErrNotFound) {
			a.logger.ErrorContext(ctx, "Execution record changed under the dispatcher", "error", err)
			return nil, &LedgerWriteError{ExecutionID: a.record.ID, Cause: err}
		}

		lastErr = err
		a.logger.WarnContext(ctx, "Terminal ledger write failed", "attempt", i, "error", err)
		if i < cfg.TerminalWriteAttempts && cfg.TerminalWriteBackoff > 0 {
			time.Sleep(cfg.TerminalWriteBackoff * time.Duration(i))
		}
	}

	a.logger.ErrorContext(ctx, "Execution left pending after terminal write retries", "error", lastErr)
	return nil, &LedgerWriteError{ExecutionID: a.record.ID, Cause: lastErr}
}

// parseOutput decodes a 2xx body. Empty bodies and JSON null become {}.
func parseOutput(body []byte) (any, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return map[string]any{}, nil
	}
	var output any
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("malformed response body: %w", err)
	}
	if output == nil {
		return map[string]any{}, nil
	}
	return output, nil
}
