package webhook

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.aocore.tech/internal/common/repository"
)

// MemoryRepository is an in-process Repository that also implements
// common.AggregateStore, so it can back a MemoryUnitOfWork in tests.
type MemoryRepository struct {
	mu        sync.RWMutex
	endpoints map[string]*Endpoint
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{endpoints: make(map[string]*Endpoint)}
}

// Save upserts an endpoint, enforcing the one-active-per-key index.
func (r *MemoryRepository) Save(_ context.Context, aggregate any) error {
	e, ok := aggregate.(*Endpoint)
	if !ok {
		return fmt.Errorf("unexpected aggregate %T", aggregate)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e.IsActive() {
		for _, other := range r.endpoints {
			if other.ID != e.ID && other.IsActive() && other.WorkflowName == e.WorkflowName && SameBrand(other.Brand, e.Brand) {
				return repository.ErrDuplicateKey
			}
		}
	}
	cp := *e
	r.endpoints[e.ID] = &cp
	return nil
}

// Remove deletes an endpoint.
func (r *MemoryRepository) Remove(_ context.Context, aggregate any) error {
	e, ok := aggregate.(*Endpoint)
	if !ok {
		return fmt.Errorf("unexpected aggregate %T", aggregate)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.endpoints, e.ID)
	return nil
}

// Seed inserts endpoints without the uniqueness check, to model legacy data.
func (r *MemoryRepository) Seed(endpoints ...*Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range endpoints {
		cp := *e
		r.endpoints[e.ID] = &cp
	}
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.endpoints[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *MemoryRepository) FindByIDs(_ context.Context, ids []string) (map[string]*Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Endpoint, len(ids))
	for _, id := range ids {
		if e, ok := r.endpoints[id]; ok {
			cp := *e
			result[id] = &cp
		}
	}
	return result, nil
}

func (r *MemoryRepository) FindActive(ctx context.Context, workflowName string, brand *string) (*Endpoint, error) {
	candidates := r.collect(func(e *Endpoint) bool {
		return e.IsActive() && e.WorkflowName == workflowName && SameBrand(e.Brand, brand)
	}, true)
	return resolveActive(ctx, workflowName, brand, candidates)
}

func (r *MemoryRepository) FindActiveByName(_ context.Context, workflowName string) (*Endpoint, error) {
	candidates := r.collect(func(e *Endpoint) bool {
		return e.IsActive() && e.WorkflowName == workflowName
	}, true)
	if len(candidates) == 0 {
		return nil, ErrNotFound
	}
	return candidates[0], nil
}

func (r *MemoryRepository) ActiveExists(_ context.Context, workflowName string, brand *string, excludeID string) (bool, error) {
	matches := r.collect(func(e *Endpoint) bool {
		return e.ID != excludeID && e.IsActive() && e.WorkflowName == workflowName && SameBrand(e.Brand, brand)
	}, true)
	return len(matches) > 0, nil
}

func (r *MemoryRepository) List(_ context.Context, filter ListFilter) ([]*Endpoint, error) {
	return r.collect(filter.Matches, false), nil
}

// collect returns copies of matching endpoints ordered by created_at,
// ascending when oldestFirst is set and descending otherwise.
func (r *MemoryRepository) collect(match func(*Endpoint) bool, oldestFirst bool) []*Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*Endpoint{}
	for _, e := range r.endpoints {
		if match(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		if oldestFirst {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
