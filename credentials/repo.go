package credentials

import "context"

// Repo is the raw durable key-value storage underneath a Store.
// Get returns errors.ErrNotFound when the key is absent.
// Implementations must be safe for concurrent use.
type Repo interface {
	Get(ctx context.Context, key string) (string, error)
	Upsert(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
