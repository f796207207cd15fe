package execution

import "context"

// Repository defines data access for execution records.
// Only the Ledger uses it; all implementations must be wrapped with instrumentation.
type Repository interface {
	Insert(ctx context.Context, record *Record) error

	// TransitionFromPending applies t only if the record is still pending.
	// Returns ErrNotFound for an unknown id and ErrInvalidState when the
	// record already reached a terminal state.
	TransitionFromPending(ctx context.Context, id string, t Transition) (*Record, error)

	FindByID(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, filter ListFilter, limit int) ([]*Record, error)
	FindStalePending(ctx context.Context, cutoff StaleCutoff, limit int) ([]*Record, error)
	CountByStatus(ctx context.Context, status Status) (int64, error)
}
