package webhook

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

func (r *instrumentedRepository) FindByID(ctx context.Context, id string) (*Endpoint, error) {
	return repository.Instrument(ctx, CollectionName, "FindByID", func() (*Endpoint, error) {
		return r.inner.FindByID(ctx, id)
	})
}

func (r *instrumentedRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*Endpoint, error) {
	return repository.Instrument(ctx, CollectionName, "FindByIDs", func() (map[string]*Endpoint, error) {
		return r.inner.FindByIDs(ctx, ids)
	})
}

func (r *instrumentedRepository) FindActive(ctx context.Context, workflowName string, brand *string) (*Endpoint, error) {
	return repository.Instrument(ctx, CollectionName, "FindActive", func() (*Endpoint, error) {
		return r.inner.FindActive(ctx, workflowName, brand)
	})
}

func (r *instrumentedRepository) FindActiveByName(ctx context.Context, workflowName string) (*Endpoint, error) {
	return repository.Instrument(ctx, CollectionName, "FindActiveByName", func() (*Endpoint, error) {
		return r.inner.FindActiveByName(ctx, workflowName)
	})
}

func (r *instrumentedRepository) ActiveExists(ctx context.Context, workflowName string, brand *string, excludeID string) (bool, error) {
	return repository.Instrument(ctx, CollectionName, "ActiveExists", func() (bool, error) {
		return r.inner.ActiveExists(ctx, workflowName, brand, excludeID)
	})
}

func (r *instrumentedRepository) List(ctx context.Context, filter ListFilter) ([]*Endpoint, error) {
	return repository.Instrument(ctx, CollectionName, "List", func() ([]*Endpoint, error) {
		return r.inner.List(ctx, filter)
	})
}
