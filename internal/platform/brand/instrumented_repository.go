package brand

import (
	"context"

	"go.aocore.tech/internal/common/repository"
)

type instrumentedRepository struct {
	inner Repository
}

func newInstrumentedRepository(inner Repository) Repository {
	return &instrumentedRepository{inner: inner}
}

func (r *instrumentedRepository) FindByID(ctx context.Context, id string) (*Configuration, error) {
	return repository.Instrument(ctx, CollectionName, "FindByID", func() (*Configuration, error) {
		return r.inner.FindByID(ctx, id)
	})
}

func (r *instrumentedRepository) FindByKey(ctx context.Context, key string) (*Configuration, error) {
	return repository.Instrument(ctx, CollectionName, "FindByKey", func() (*Configuration, error) {
		return r.inner.FindByKey(ctx, key)
	})
}

func (r *instrumentedRepository) List(ctx context.Context) ([]*Configuration, error) {
	return repository.Instrument(ctx, CollectionName, "List", func() ([]*Configuration, error) {
		return r.inner.List(ctx)
	})
}
