package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"go.aocore.tech/internal/common/metrics"
)

// Ledger is the append-and-transition log of dispatch attempts. Records are
// inserted pending and move exactly once to success, failed or timeout.
// The dispatcher and the stale-pending sweeper are its only writers.
type Ledger struct {
	repo Repository
	now  func() time.Time
}

// NewLedger creates a Ledger over repo.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo, now: time.Now}
}

// Begin durably inserts a pending record. The caller must not contact the
// remote endpoint until Begin has returned without error.
func (l *Ledger) Begin(ctx context.Context, endpointID string, userID *string, input map[string]any) (*Record, error) {
	return l.BeginWithDeadline(ctx, endpointID, userID, input, 0)
}

// BeginWithDeadline is Begin for a call bounded by timeout. The record's
// deadline_at keeps the sweeper away from it while the call may still run.
// A zero timeout writes no deadline.
func (l *Ledger) BeginWithDeadline(ctx context.Context, endpointID string, userID *string, input map[string]any, timeout time.Duration) (*Record, error) {
	if input == nil {
		input = map[string]any{}
	}
	now := l.now().UTC()
	record := &Record{
		ID:                 uuid.NewString(),
		WorkflowEndpointID: endpointID,
		UserID:             userID,
		InputPayload:       input,
		Status:             StatusPending,
		CreatedAt:          now,
	}
	if timeout > 0 {
		deadline := now.Add(timeout)
		record.DeadlineAt = &deadline
	}

	if err := l.repo.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("begin execution: %w", err)
	}
	metrics.LedgerTransitions.WithLabelValues(string(StatusPending)).Inc()
	return record, nil
}

// Complete moves a pending record to success.
func (l *Ledger) Complete(ctx context.Context, id string, output any, executionTimeMs int64) (*Record, error) {
	return l.transition(ctx, id, Transition{
		Status:          StatusSuccess,
		OutputPayload:   output,
		ExecutionTimeMs: executionTimeMs,
	})
}

// Fail moves a pending record to failed.
func (l *Ledger) Fail(ctx context.Context, id string, errorMessage string, executionTimeMs int64) (*Record, error) {
	return l.transition(ctx, id, Transition{
		Status:          StatusFailed,
		ErrorMessage:    &errorMessage,
		ExecutionTimeMs: executionTimeMs,
	})
}

// Timeout moves a pending record to timeout.
func (l *Ledger) Timeout(ctx context.Context, id string, errorMessage string, executionTimeMs int64) (*Record, error) {
	return l.transition(ctx, id, Transition{
		Status:          StatusTimeout,
		ErrorMessage:    &errorMessage,
		ExecutionTimeMs: executionTimeMs,
	})
}

func (l *Ledger) transition(ctx context.Context, id string, t Transition) (*Record, error) {
	if t.ExecutionTimeMs < 0 {
		t.ExecutionTimeMs = 0
	}
	t.CompletedAt = l.now().UTC()

	record, err := l.repo.TransitionFromPending(ctx, id, t)
	if err != nil {
		if errors.Is(err, ErrInvalidState) {
			// A second transition means the caller ran completion logic twice.
			metrics.LedgerInvalidTransitions.Inc()
			slog.ErrorContext(ctx, "Rejected transition of non-pending execution record",
				"executionId", id,
				"attemptedStatus", t.Status)
		}
		return nil, fmt.Errorf("%s execution %s: %w", t.Status, id, err)
	}

	metrics.LedgerTransitions.WithLabelValues(string(t.Status)).Inc()
	return record, nil
}

// GetByID returns a record or ErrNotFound.
func (l *Ledger) GetByID(ctx context.Context, id string) (*Record, error) {
	return l.repo.FindByID(ctx, id)
}

// List returns records newest first. limit is clamped to 1..100, 0 means 50.
func (l *Ledger) List(ctx context.Context, filter ListFilter, limit int) ([]*Record, error) {
	return l.repo.List(ctx, filter, ClampLimit(limit))
}

// FindStalePending returns pending records oldest first whose deadline passed
// more than grace ago, or, lacking a deadline, created more than staleAfter ago.
func (l *Ledger) FindStalePending(ctx context.Context, staleAfter, grace time.Duration, limit int) ([]*Record, error) {
	now := l.now()
	return l.repo.FindStalePending(ctx, StaleCutoff{
		DeadlineBefore: now.Add(-grace),
		CreatedBefore:  now.Add(-staleAfter),
	}, limit)
}

// CountByStatus returns the number of records in status.
func (l *Ledger) CountByStatus(ctx context.Context, status Status) (int64, error) {
	return l.repo.CountByStatus(ctx, status)
}
