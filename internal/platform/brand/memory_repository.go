package brand

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.aocore.tech/internal/common/repository"
)

// MemoryRepository is an in-process Repository and common.AggregateStore.
type MemoryRepository struct {
	mu     sync.RWMutex
	brands map[string]*Configuration
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{brands: make(map[string]*Configuration)}
}

// Save upserts a brand, enforcing the unique brand_key index.
func (r *MemoryRepository) Save(_ context.Context, aggregate any) error {
	c, ok := aggregate.(*Configuration)
	if !ok {
		return fmt.Errorf("unexpected aggregate %T", aggregate)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, other := range r.brands {
		if other.ID != c.ID && other.BrandKey == c.BrandKey {
			return repository.ErrDuplicateKey
		}
	}
	cp := *c
	r.brands[c.ID] = &cp
	return nil
}

func (r *MemoryRepository) Remove(_ context.Context, aggregate any) error {
	c, ok := aggregate.(*Configuration)
	if !ok {
		return fmt.Errorf("unexpected aggregate %T", aggregate)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.brands, c.ID)
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Configuration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.brands[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) FindByKey(_ context.Context, key string) (*Configuration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.brands {
		if c.BrandKey == key {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) List(_ context.Context) ([]*Configuration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Configuration, 0, len(r.brands))
	for _, c := range r.brands {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName == out[j].DisplayName {
			return out[i].BrandKey < out[j].BrandKey
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out, nil
}
