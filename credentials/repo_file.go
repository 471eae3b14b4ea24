package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/go-admin-session/internal/errors"
	"gopkg.in/yaml.v3"
)

var _ Repo = (*FileRepo)(nil)

// FileRepo persists credentials in a YAML document readable only by the current user.
// The file is re-read on every call so that several CLI processes see each other's writes.
type FileRepo struct {
	mu   sync.Mutex
	path string
}

// NewFileRepo creates a file-backed repo, creating the parent directory if needed.
func NewFileRepo(path string) (*FileRepo, error) {
	if path == "" {
		return nil, fmt.Errorf("credential file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create credential directory: %w", err)
	}
	return &FileRepo{path: path}, nil
}

func (r *FileRepo) Get(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, err := r.read()
	if err != nil {
		return "", err
	}
	value, ok := values[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", key, apperrors.ErrNotFound)
	}
	return value, nil
}

func (r *FileRepo) Upsert(_ context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	values, err := r.read()
	if err != nil {
		return err
	}
	if current, ok := values[key]; ok && current == value {
		return nil
	}
	values[key] = value
	return r.write(values)
}

func (r *FileRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, err := r.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return r.write(values)
}

func (r *FileRepo) Close() error {
	return nil
}

func (r *FileRepo) read() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}
	return values, nil
}

// write replaces the file atomically through a temp file in the same directory.
func (r *FileRepo) write(values map[string]string) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to create temp credential file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to restrict credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close credential file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace credential file: %w", err)
	}
	return nil
}
