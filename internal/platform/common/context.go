package common

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Context keys for storing tracing information
type contextKey string

const (
	correlationIDKey contextKey = "correlationID"
	causationIDKey   contextKey = "causationID"
	executionCtxKey  contextKey = "executionContext"
)

// HTTP header names for distributed tracing
const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderRequestID     = "X-Request-ID"
	HeaderCausationID   = "X-Causation-ID"
)

// ExecutionContext contains metadata about the current use case execution:
// tracing identifiers plus the caller identity derived from the bearer token.
// It is passed explicitly into every use case and into the dispatcher.
type ExecutionContext struct {
	// ExecutionID is a unique identifier for this specific execution.
	ExecutionID string

	// CorrelationID is the distributed tracing identifier.
	CorrelationID string

	// CausationID is the ID of the event that caused this execution.
	CausationID string

	// PrincipalID identifies who is performing the action (the token subject).
	// Empty for system-triggered work such as the sweeper.
	PrincipalID string

	// OrgID is the organisation the principal acts within.
	OrgID string

	// Role is the principal's role within OrgID.
	Role string

	// InitiatedAt is when the execution started.
	InitiatedAt time.Time
}

func newExecutionID() string {
	return "exec-" + uuid.NewString()
}

// NewExecutionContext creates a new execution context for a fresh request.
func NewExecutionContext(principalID string) *ExecutionContext {
	execID := newExecutionID()
	return &ExecutionContext{
		ExecutionID:   execID,
		CorrelationID: execID,
		PrincipalID:   principalID,
		InitiatedAt:   time.Now(),
	}
}

// SystemExecutionContext creates a context for background jobs with no principal.
func SystemExecutionContext(source string) *ExecutionContext {
	ec := NewExecutionContext("")
	ec.CorrelationID = source + "-" + uuid.NewString()
	return ec
}

// ExecutionContextFromRequest creates an execution context from an HTTP request.
// It extracts correlation and causation IDs from headers if present.
func ExecutionContextFromRequest(r *http.Request, principalID string) *ExecutionContext {
	execID := newExecutionID()

	correlationID := CorrelationIDFromContext(r.Context())
	if correlationID == "" {
		correlationID = r.Header.Get(HeaderCorrelationID)
	}
	if correlationID == "" {
		correlationID = r.Header.Get(HeaderRequestID)
	}
	if correlationID == "" {
		correlationID = execID
	}

	return &ExecutionContext{
		ExecutionID:   execID,
		CorrelationID: correlationID,
		CausationID:   r.Header.Get(HeaderCausationID),
		PrincipalID:   principalID,
		InitiatedAt:   time.Now(),
	}
}

// WithPrincipal returns a copy carrying the given org and role.
func (ec *ExecutionContext) WithPrincipal(orgID, role string) *ExecutionContext {
	cp := *ec
	cp.OrgID = orgID
	cp.Role = role
	return &cp
}

// UserID returns the principal id, or nil for system-triggered executions.
func (ec *ExecutionContext) UserID() *string {
	if ec == nil || ec.PrincipalID == "" {
		return nil
	}
	id := ec.PrincipalID
	return &id
}

// ExecutionContextFromContext extracts execution context from a Go context.
// Returns nil if no execution context is present.
func ExecutionContextFromContext(ctx context.Context) *ExecutionContext {
	if ec, ok := ctx.Value(executionCtxKey).(*ExecutionContext); ok {
		return ec
	}
	return nil
}

// ToContext stores the execution context in a Go context.
func (ec *ExecutionContext) ToContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, executionCtxKey, ec)
}

// CorrelationIDFromContext extracts just the correlation ID from a context.
// Returns empty string if not present.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	if ec := ExecutionContextFromContext(ctx); ec != nil {
		return ec.CorrelationID
	}
	return ""
}

// CausationIDFromContext extracts just the causation ID from a context.
func CausationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(causationIDKey).(string); ok {
		return id
	}
	if ec := ExecutionContextFromContext(ctx); ec != nil {
		return ec.CausationID
	}
	return ""
}

// WithCorrelationID adds a correlation ID to a context.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// WithCausationID adds a causation ID to a context.
func WithCausationID(ctx context.Context, causationID string) context.Context {
	return context.WithValue(ctx, causationIDKey, causationID)
}
