package execution

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/queue"
)

// Lifecycle event subjects, one per terminal status.
const (
	SubjectSucceeded = "aocore.execution.succeeded"
	SubjectFailed    = "aocore.execution.failed"
	SubjectTimedOut  = "aocore.execution.timed_out"
)

// SubjectFor returns the lifecycle subject for a terminal status.
func SubjectFor(status Status) string {
	switch status {
	case StatusSuccess:
		return SubjectSucceeded
	case StatusTimeout:
		return SubjectTimedOut
	default:
		return SubjectFailed
	}
}

// LifecycleEvent is published after a record reaches a terminal state.
type LifecycleEvent struct {
	SpecVersion        string    `json:"specVersion"`
	ID                 string    `json:"id"`
	Type               string    `json:"type"`
	Source             string    `json:"source"`
	Time               time.Time `json:"time"`
	ExecutionID        string    `json:"executionId"`
	WorkflowEndpointID string    `json:"workflowEndpointId"`
	WorkflowName       string    `json:"workflowName,omitempty"`
	UserID             *string   `json:"userId"`
	Status             Status    `json:"status"`
	ErrorMessage       *string   `json:"errorMessage,omitempty"`
	ExecutionTimeMs    *int64    `json:"executionTimeMs,omitempty"`
	CorrelationID      string    `json:"correlationId,omitempty"`
}

// NewLifecycleEvent builds the event for a terminal record.
func NewLifecycleEvent(ctx context.Context, record *Record, workflowName string) *LifecycleEvent {
	return &LifecycleEvent{
		SpecVersion:        "1.0",
		ID:                 uuid.NewString(),
		Type:               SubjectFor(record.Status),
		Source:             common.EventSource,
		Time:               time.Now().UTC(),
		ExecutionID:        record.ID,
		WorkflowEndpointID: record.WorkflowEndpointID,
		WorkflowName:       workflowName,
		UserID:             record.UserID,
		Status:             record.Status,
		ErrorMessage:       record.ErrorMessage,
		ExecutionTimeMs:    record.ExecutionTimeMs,
		CorrelationID:      common.CorrelationIDFromContext(ctx),
	}
}

// Notifier publishes lifecycle events. Publishing is best effort: failures
// are logged and never reach the caller. A nil Notifier is valid and silent.
type Notifier struct {
	publisher queue.Publisher
	timeout   time.Duration
}

// NewNotifier creates a Notifier over publisher.
func NewNotifier(publisher queue.Publisher) *Notifier {
	return &Notifier{publisher: publisher, timeout: 5 * time.Second}
}

// Notify publishes the lifecycle event for a terminal record.
func (n *Notifier) Notify(ctx context.Context, record *Record, workflowName string) {
	if n == nil || n.publisher == nil || record == nil {
		return
	}

	event := NewLifecycleEvent(ctx, record, workflowName)
	data, err := json.Marshal(event)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode execution event", "executionId", record.ID, "error", err)
		return
	}

	msg := queue.NewMessageBuilder(event.Type).
		WithData(data).
		WithMessageGroup(record.WorkflowEndpointID).
		WithDeduplicationID(record.ID + ":" + string(record.Status)).
		WithMetadata("correlationId", event.CorrelationID).
		Build()

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	if err := n.publisher.Publish(pubCtx, msg); err != nil {
		slog.WarnContext(ctx, "Failed to publish execution event",
			"executionId", record.ID,
			"subject", event.Type,
			"error", err)
	}
}
