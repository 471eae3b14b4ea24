package credentials

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/jrsteele09/go-admin-session/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is an in-memory implementation of Repo. Nothing survives the process.
type InMemoryRepo struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewInMemoryRepo creates a new in-memory credential repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		values: make(map[string]string),
	}
}

func (r *InMemoryRepo) Get(_ context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.values[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", key, apperrors.ErrNotFound)
	}
	return value, nil
}

func (r *InMemoryRepo) Upsert(_ context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}

func (r *InMemoryRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values, key) // Already doesn't exist, no error
	return nil
}

// Len returns the number of stored keys.
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.values)
}

func (r *InMemoryRepo) Close() error {
	return nil
}
