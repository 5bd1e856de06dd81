package project

import (
	"context"

	"github.com/ganot/appforge/internal/identity"
)

// Repository provides persistence for projects.
type Repository interface {
	Create(ctx context.Context, owner identity.OwnerID, proj *Project) error
	Get(ctx context.Context, owner identity.OwnerID, id string) (*Project, error)
	// List returns the owner's projects in creation order.
	List(ctx context.Context, owner identity.OwnerID) ([]Project, error)
	// Update rewrites the project row and appends chat messages beyond the
	// stored count. It returns repository.ErrConflict if the stored version
	// is not expectedVersion.
	Update(ctx context.Context, owner identity.OwnerID, proj *Project, expectedVersion int64) error
	Delete(ctx context.Context, owner identity.OwnerID, id string) error
}
