package activity

import (
	"context"

	"github.com/ganot/appforge/internal/identity"
)

// Repository provides persistence operations for activity entries.
type Repository interface {
	Log(ctx context.Context, owner identity.OwnerID, entry *ActivityEntry) error
	List(ctx context.Context, owner identity.OwnerID, opts ListActivityOptions) ([]ActivityEntry, error)
}
