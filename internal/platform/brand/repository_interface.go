package brand

import "context"

// Repository defines read access to brand configurations.
// Writes go through common.UnitOfWork.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Configuration, error)
	FindByKey(ctx context.Context, key string) (*Configuration, error)

	// List returns all brands ordered by display name.
	List(ctx context.Context) ([]*Configuration, error)
}
