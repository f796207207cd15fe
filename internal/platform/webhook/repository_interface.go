package webhook

import "context"

// Repository defines read access to registered endpoints.
// Writes go through common.UnitOfWork so every change is evented and audited.
// All implementations must be wrapped with instrumentation.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Endpoint, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*Endpoint, error)

	// FindActive returns the active endpoint for workflowName whose brand
	// matches exactly; a nil brand only matches brand-agnostic endpoints.
	FindActive(ctx context.Context, workflowName string, brand *string) (*Endpoint, error)

	// FindActiveByName returns the oldest active endpoint for workflowName regardless of brand.
	FindActiveByName(ctx context.Context, workflowName string) (*Endpoint, error)

	// ActiveExists reports whether another active endpoint already holds (workflowName, brand).
	ActiveExists(ctx context.Context, workflowName string, brand *string, excludeID string) (bool, error)

	List(ctx context.Context, filter ListFilter) ([]*Endpoint, error)
}
