package execution

import (
	"context"
	"sort"
	"sync"

	"go.aocore.tech/internal/common/repository"
)

// MemoryRepository is an in-process Repository used by tests and by the
// dev server when MongoDB is not configured.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[string]*Record

	// InsertErr, when set, is returned by Insert.
	InsertErr error
	// TransitionErrs are returned, in order, by the next TransitionFromPending calls.
	TransitionErrs []error
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]*Record)}
}

func (r *MemoryRepository) Insert(_ context.Context, record *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.InsertErr != nil {
		return r.InsertErr
	}
	if _, exists := r.records[record.ID]; exists {
		return repository.ErrDuplicateKey
	}
	cp := *record
	r.records[record.ID] = &cp
	return nil
}

func (r *MemoryRepository) TransitionFromPending(_ context.Context, id string, t Transition) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.TransitionErrs) > 0 {
		err := r.TransitionErrs[0]
		r.TransitionErrs = r.TransitionErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	record, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	if record.Status != StatusPending {
		return nil, ErrInvalidState
	}
	t.apply(record)
	cp := *record
	return &cp, nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (r *MemoryRepository) List(_ context.Context, filter ListFilter, limit int) ([]*Record, error) {
	out := r.collect(filter.Matches, false)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) FindStalePending(_ context.Context, cutoff StaleCutoff, limit int) ([]*Record, error) {
	out := r.collect(cutoff.Matches, true)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) CountByStatus(_ context.Context, status Status) (int64, error) {
	return int64(len(r.collect(func(rec *Record) bool { return rec.Status == status }, true))), nil
}

// Count returns the number of stored records.
func (r *MemoryRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *MemoryRepository) collect(match func(*Record) bool, oldestFirst bool) []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*Record{}
	for _, rec := range r.records {
		if match(rec) {
			cp := *rec
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
