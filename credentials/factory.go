package credentials

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-admin-session/internal/config"
	apperrors "github.com/jrsteele09/go-admin-session/internal/errors"
)

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// OpenRepo builds the Repo selected by cfg.GetCredentialStore().
func OpenRepo(ctx context.Context, cfg config.StoreConfig) (Repo, error) {
	var (
		repo Repo
		err  error
	)
	switch backend := strings.ToLower(cfg.GetCredentialStore()); backend {
	case BackendMemory:
		repo = NewInMemoryRepo()
	case BackendFile, "":
		repo, err = NewFileRepo(cfg.GetCredentialFile())
	case BackendRedis:
		repo, err = NewRedisRepo(ctx, RedisOptions{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
		})
	case BackendSQLite:
		repo, err = NewSQLiteRepo(cfg.GetSQLitePath())
	default:
		return nil, fmt.Errorf("%q: %w", backend, apperrors.ErrUnknownBackend)
	}
	if err != nil {
		return nil, err
	}
	return repo, nil
}
