package history

import "context"

// Repository stores the ledger newest first.
type Repository interface {
	// Prepend stores entry as the newest element and drops everything past
	// limit in the same write.
	Prepend(ctx context.Context, entry Entry, limit int) error
	List(ctx context.Context) ([]Entry, error)
	Get(ctx context.Context, id string) (*Entry, error)
}
