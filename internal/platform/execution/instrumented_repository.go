package execution

import (
	"context"

	"go.aocore.tech/internal/common/repository"
)

// instrumentedRepository wraps a Repository with metrics and logging
type instrumentedRepository struct {
	inner Repository
}

// newInstrumentedRepository creates an instrumented wrapper around a Repository
func newInstrumentedRepository(inner Repository) Repository {
	return &instrumentedRepository{inner: inner}
}

func (r *instrumentedRepository) Insert(ctx context.Context, record *Record) error {
	return repository.InstrumentVoid(ctx, CollectionName, "Insert", func() error {
		return r.inner.Insert(ctx, record)
	})
}

func (r *instrumentedRepository) TransitionFromPending(ctx context.Context, id string, t Transition) (*Record, error) {
	return repository.Instrument(ctx, CollectionName, "TransitionFromPending", func() (*Record, error) {
		return r.inner.TransitionFromPending(ctx, id, t)
	})
}

func (r *instrumentedRepository) FindByID(ctx context.Context, id string) (*Record, error) {
	return repository.Instrument(ctx, CollectionName, "FindByID", func() (*Record, error) {
		return r.inner.FindByID(ctx, id)
	})
}

func (r *instrumentedRepository) List(ctx context.Context, filter ListFilter, limit int) ([]*Record, error) {
	return repository.Instrument(ctx, CollectionName, "List", func() ([]*Record, error) {
		return r.inner.List(ctx, filter, limit)
	})
}

func (r *instrumentedRepository) FindStalePending(ctx context.Context, cutoff StaleCutoff, limit int) ([]*Record, error) {
	return repository.Instrument(ctx, CollectionName, "FindStalePending", func() ([]*Record, error) {
		return r.inner.FindStalePending(ctx, cutoff, limit)
	})
}

func (r *instrumentedRepository) CountByStatus(ctx context.Context, status Status) (int64, error) {
	return repository.Instrument(ctx, CollectionName, "CountByStatus", func() (int64, error) {
		return r.inner.CountByStatus(ctx, status)
	})
}
