package execution

import (
	"time"
)

// CollectionName is the MongoDB collection holding execution records.
const CollectionName = "workflow_executions"

// Status is the execution state. pending is the only non-terminal state.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusTimeout Status = "timeout"
)

// ParseStatus validates a caller-supplied status string.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusSuccess, StatusFailed, StatusTimeout:
		return Status(s), true
	}
	return "", false
}

// IsTerminal returns true for success, failed and timeout.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusTimeout
}

// Record is one dispatch attempt.
// Collection: workflow_executions
type Record struct {
	ID                 string         `bson:"_id" json:"id"`
	WorkflowEndpointID string         `bson:"workflow_id" json:"workflowEndpointId"`
	UserID             *string        `bson:"user_id" json:"userId"`
	InputPayload       map[string]any `bson:"input_payload" json:"inputPayload"`
	OutputPayload      any            `bson:"output_payload" json:"outputPayload"`
	Status             Status         `bson:"status" json:"status"`
	ErrorMessage       *string        `bson:"error_message" json:"errorMessage"`
	ExecutionTimeMs    *int64         `bson:"execution_time_ms" json:"executionTimeMs"`
	CreatedAt          time.Time      `bson:"created_at" json:"createdAt"`
	DeadlineAt         *time.Time     `bson:"deadline_at,omitempty" json:"deadlineAt,omitempty"`
	CompletedAt        *time.Time     `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
}

// Transition is the terminal state written by the pending guard.
type Transition struct {
	Status          Status
	OutputPayload   any
	ErrorMessage    *string
	ExecutionTimeMs int64
	CompletedAt     time.Time
}

// apply copies the transition onto a record.
func (t Transition) apply(r *Record) {
	ms := t.ExecutionTimeMs
	completed := t.CompletedAt
	r.Status = t.Status
	r.OutputPayload = t.OutputPayload
	r.ErrorMessage = t.ErrorMessage
	r.ExecutionTimeMs = &ms
	r.CompletedAt = &completed
}

// ListFilter narrows List. Nil fields are not filtered on.
type ListFilter struct {
	EndpointID *string
	UserID     *string
	Status     *Status
}

// Matches reports whether r satisfies the filter.
func (f ListFilter) Matches(r *Record) bool {
	if f.EndpointID != nil && r.WorkflowEndpointID != *f.EndpointID {
		return false
	}
	if f.UserID != nil && (r.UserID == nil || *r.UserID != *f.UserID) {
		return false
	}
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	return true
}

// StaleCutoff selects pending records no dispatcher can still be working on.
// A record with a deadline is stale once that deadline is before
// DeadlineBefore; a record without one once it was created before CreatedBefore.
type StaleCutoff struct {
	DeadlineBefore time.Time
	CreatedBefore  time.Time
}

// Matches reports whether r is a stale pending record.
func (c StaleCutoff) Matches(r *Record) bool {
	if r.Status != StatusPending {
		return false
	}
	if r.DeadlineAt != nil {
		return r.DeadlineAt.Before(c.DeadlineBefore)
	}
	return r.CreatedAt.Before(c.CreatedBefore)
}

// List limits.
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// ClampLimit bounds a list limit to 1..MaxLimit, using DefaultLimit for zero.
func ClampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultLimit
	case limit < 1:
		return 1
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}
