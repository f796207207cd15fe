package common

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections written by every commit.
const (
	DomainEventsCollection = "domain_events"
	AuditLogsCollection    = "audit_logs"
)

// MongoUnitOfWork implements UnitOfWork using MongoDB transactions.
// Aggregate persistence, domain event creation and audit logging happen
// within a single transaction, which requires a replica set.
type MongoUnitOfWork struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoUnitOfWork creates a new MongoDB-backed UnitOfWork.
func NewMongoUnitOfWork(client *mongo.Client, db *mongo.Database) *MongoUnitOfWork {
	return &MongoUnitOfWork{
		client: client,
		db:     db,
	}
}

// Commit persists an aggregate with its domain event atomically.
func (uow *MongoUnitOfWork) Commit(
	ctx context.Context,
	aggregate any,
	event DomainEvent,
	command any,
) Result[DomainEvent] {
	return uow.inTransaction(ctx, event, command, func(sessCtx mongo.SessionContext) error {
		return uow.persistAggregate(sessCtx, aggregate)
	})
}

// CommitDelete deletes an aggregate with its domain event atomically.
func (uow *MongoUnitOfWork) CommitDelete(
	ctx context.Context,
	aggregate any,
	event DomainEvent,
	command any,
) Result[DomainEvent] {
	return uow.inTransaction(ctx, event, command, func(sessCtx mongo.SessionContext) error {
		return uow.deleteAggregate(sessCtx, aggregate)
	})
}

func (uow *MongoUnitOfWork) inTransaction(
	ctx context.Context,
	event DomainEvent,
	command any,
	mutate func(mongo.SessionContext) error,
) Result[DomainEvent] {
	session, err := uow.client.StartSession()
	if err != nil {
		return Failure[DomainEvent](InternalError(
			ErrCodeCommitFailed,
			"Failed to start session: "+err.Error(),
			nil,
		))
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		if err := mutate(sessCtx); err != nil {
			return nil, fmt.Errorf("write aggregate: %w", err)
		}

		if _, err := uow.db.Collection(DomainEventsCollection).InsertOne(sessCtx, ToPersistedEvent(event)); err != nil {
			return nil, fmt.Errorf("create event: %w", err)
		}

		if _, err := uow.db.Collection(AuditLogsCollection).InsertOne(sessCtx, NewAuditLog(event, command)); err != nil {
			return nil, fmt.Errorf("create audit log: %w", err)
		}

		return nil, nil
	})

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Failure[DomainEvent](conflictError(event))
		}
		return Failure[DomainEvent](InternalError(
			ErrCodeCommitFailed,
			"Transaction failed: "+err.Error(),
			nil,
		))
	}

	return newSuccess[DomainEvent](event)
}

// persistAggregate upserts an aggregate to its collection.
func (uow *MongoUnitOfWork) persistAggregate(ctx mongo.SessionContext, aggregate any) error {
	collectionName, id, err := aggregateKey(aggregate)
	if err != nil {
		return err
	}

	_, err = uow.db.Collection(collectionName).ReplaceOne(
		ctx,
		bson.M{"_id": id},
		aggregate,
		options.Replace().SetUpsert(true),
	)
	return err
}

// deleteAggregate removes an aggregate from its collection.
func (uow *MongoUnitOfWork) deleteAggregate(ctx mongo.SessionContext, aggregate any) error {
	collectionName, id, err := aggregateKey(aggregate)
	if err != nil {
		return err
	}

	_, err = uow.db.Collection(collectionName).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func aggregateKey(aggregate any) (string, string, error) {
	ar, ok := aggregate.(AggregateRoot)
	if !ok {
		return "", "", fmt.Errorf("aggregate type %T does not implement AggregateRoot", aggregate)
	}
	if ar.AggregateID() == "" {
		return "", "", fmt.Errorf("aggregate %T has no ID", aggregate)
	}
	return ar.CollectionName(), ar.AggregateID(), nil
}

// NewAuditLog builds the audit entry recorded for a committed command.
func NewAuditLog(event DomainEvent, command any) AuditLog {
	var operationJSON string
	if auditable, ok := command.(Auditable); ok {
		operationJSON = auditable.ToAuditJSON()
	} else if bytes, err := json.Marshal(command); err == nil {
		operationJSON = string(bytes)
	} else {
		operationJSON = "{}"
	}

	return AuditLog{
		ID:            uuid.NewString(),
		EntityType:    entityType(event.Subject()),
		EntityID:      subjectPart(event.Subject(), 2),
		Operation:     operationName(command),
		OperationJSON: operationJSON,
		PrincipalID:   event.PrincipalID(),
		OrgID:         event.OrgID(),
		CorrelationID: event.CorrelationID(),
		PerformedAt:   event.Time(),
	}
}

// entityType returns the aggregate segment of a subject in PascalCase,
// "registry.endpoint.123" -> "Endpoint".
func entityType(subject string) string {
	aggregate := subjectPart(subject, 1)
	if aggregate == "" {
		return "Unknown"
	}
	return strings.ToUpper(aggregate[:1]) + aggregate[1:]
}

// operationName is the command's type name, e.g. "RegisterEndpointCommand".
func operationName(command any) string {
	t := reflect.TypeOf(command)
	if t == nil {
		return "Unknown"
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

func conflictError(event DomainEvent) *UseCaseError {
	return BusinessRuleError(
		ErrCodeAlreadyExists,
		"A conflicting record already exists",
		map[string]any{"subject": event.Subject()},
	)
}
