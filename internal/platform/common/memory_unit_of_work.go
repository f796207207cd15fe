package common

import (
	"context"
	"errors"
	"sync"

	"go.aocore.tech/internal/common/repository"
)

// AggregateStore is the persistence hook used by MemoryUnitOfWork.
// The in-memory repositories implement it so use cases can be exercised
// without MongoDB.
type AggregateStore interface {
	Save(ctx context.Context, aggregate any) error
	Remove(ctx context.Context, aggregate any) error
}

// MemoryUnitOfWork is a UnitOfWork that applies changes to an AggregateStore
// and keeps committed events and audit logs in memory. Used in tests and
// by the dev server when MongoDB is not configured.
type MemoryUnitOfWork struct {
	store AggregateStore

	mu     sync.Mutex
	events []DomainEvent
	audits []AuditLog
}

// NewMemoryUnitOfWork creates a MemoryUnitOfWork writing to store.
func NewMemoryUnitOfWork(store AggregateStore) *MemoryUnitOfWork {
	return &MemoryUnitOfWork{store: store}
}

func (uow *MemoryUnitOfWork) Commit(ctx context.Context, aggregate any, event DomainEvent, command any) Result[DomainEvent] {
	return uow.apply(ctx, event, command, func() error { return uow.store.Save(ctx, aggregate) })
}

func (uow *MemoryUnitOfWork) CommitDelete(ctx context.Context, aggregate any, event DomainEvent, command any) Result[DomainEvent] {
	return uow.apply(ctx, event, command, func() error { return uow.store.Remove(ctx, aggregate) })
}

func (uow *MemoryUnitOfWork) apply(ctx context.Context, event DomainEvent, command any, mutate func() error) Result[DomainEvent] {
	if err := ctx.Err(); err != nil {
		return Failure[DomainEvent](InternalError(ErrCodeCommitFailed, err.Error(), nil))
	}

	uow.mu.Lock()
	defer uow.mu.Unlock()

	if err := mutate(); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return Failure[DomainEvent](conflictError(event))
		}
		return Failure[DomainEvent](InternalError(ErrCodeCommitFailed, err.Error(), nil))
	}

	uow.events = append(uow.events, event)
	uow.audits = append(uow.audits, NewAuditLog(event, command))
	return newSuccess(event)
}

// Events returns the committed events in commit order.
func (uow *MemoryUnitOfWork) Events() []DomainEvent {
	uow.mu.Lock()
	defer uow.mu.Unlock()
	return append([]DomainEvent(nil), uow.events...)
}

// AuditLogs returns the audit entries in commit order.
func (uow *MemoryUnitOfWork) AuditLogs() []AuditLog {
	uow.mu.Lock()
	defer uow.mu.Unlock()
	return append([]AuditLog(nil), uow.audits...)
}
