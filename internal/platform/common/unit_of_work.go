package common

import (
	"context"
	"time"
)

// UnitOfWork persists an aggregate, its domain event and an audit log
// atomically. It is the only way for a mutating use case to return success.
//
// Example usage in a use case:
//
//	func (uc *RegisterEndpointUseCase) Execute(
//	    ctx context.Context,
//	    cmd RegisterEndpointCommand,
//	    execCtx *common.ExecutionContext,
//	) common.Result[common.DomainEvent] {
//	    if cmd.WorkflowName == "" {
//	        return common.Failure[common.DomainEvent](common.ValidationError(...))
//	    }
//	    endpoint := &webhook.Endpoint{...}
//	    event := events.NewEndpointRegistered(execCtx, endpoint)
//	    return uc.unitOfWork.Commit(ctx, endpoint, event, cmd)
//	}
type UnitOfWork interface {
	// Commit upserts the aggregate, inserts the event and writes the audit
	// log in one transaction. Nothing is written if any step fails.
	Commit(ctx context.Context, aggregate any, event DomainEvent, command any) Result[DomainEvent]

	// CommitDelete removes the aggregate and records the event and audit log
	// in one transaction.
	CommitDelete(ctx context.Context, aggregate any, event DomainEvent, command any) Result[DomainEvent]
}

// AggregateRoot is implemented by every aggregate passed to a UnitOfWork.
type AggregateRoot interface {
	// AggregateID returns the unique identifier for this aggregate.
	AggregateID() string

	// CollectionName returns the MongoDB collection name for this aggregate type.
	CollectionName() string
}

// Auditable is an optional interface that commands can implement
// to customize how they are serialized for audit logging.
type Auditable interface {
	// ToAuditJSON returns the JSON representation for audit logging.
	// Use this to redact sensitive fields such as signing secret references.
	ToAuditJSON() string
}

// AuditLog is one audit_logs entry written alongside a committed mutation.
type AuditLog struct {
	ID            string    `bson:"_id" json:"id"`
	EntityType    string    `bson:"entityType" json:"entityType"`
	EntityID      string    `bson:"entityId" json:"entityId"`
	Operation     string    `bson:"operation" json:"operation"`
	OperationJSON string    `bson:"operationJson" json:"operationJson"`
	PrincipalID   string    `bson:"principalId" json:"principalId"`
	OrgID         string    `bson:"orgId,omitempty" json:"orgId,omitempty"`
	CorrelationID string    `bson:"correlationId" json:"correlationId"`
	PerformedAt   time.Time `bson:"performedAt" json:"performedAt"`
}
