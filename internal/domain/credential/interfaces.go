package credential

import "context"

// Repository persists provider keys. Get returns repository.ErrNotFound when
// no key is stored for the provider.
type Repository interface {
	Put(ctx context.Context, entry Entry) error
	Get(ctx context.Context, provider Provider) (*Entry, error)
	List(ctx context.Context) ([]Entry, error)
}
