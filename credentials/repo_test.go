package credentials_test

import (
	"context"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-admin-session/credentials"
	apperrors "github.com/jrsteele09/go-admin-session/internal/errors"
	"github.com/stretchr/testify/require"
)

func repoFactories(t *testing.T) map[string]func(t *testing.T) credentials.Repo {
	t.Helper()
	return map[string]func(t *testing.T) credentials.Repo{
		"memory": func(t *testing.T) credentials.Repo {
			return credentials.NewInMemoryRepo()
		},
		"file": func(t *testing.T) credentials.Repo {
			repo, err := credentials.NewFileRepo(filepath.Join(t.TempDir(), "nested", "credentials.yaml"))
			require.NoError(t, err)
			return repo
		},
		"redis": func(t *testing.T) credentials.Repo {
			mr := miniredis.RunT(t)
			repo, err := credentials.NewRedisRepo(context.Background(), credentials.RedisOptions{Addr: mr.Addr()})
			require.NoError(t, err)
			return repo
		},
		"sqlite": func(t *testing.T) credentials.Repo {
			repo, err := credentials.NewSQLiteRepo(filepath.Join(t.TempDir(), "credentials.db"))
			require.NoError(t, err)
			return repo
		},
	}
}

func TestRepoLifecycle(t *testing.T) {
	ctx := context.Background()

	for name, newRepo := range repoFactories(t) {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			t.Cleanup(func() { require.NoError(t, repo.Close()) })

			_, err := repo.Get(ctx, "token_dev")
			require.ErrorIs(t, err, apperrors.ErrNotFound)

			require.NoError(t, repo.Upsert(ctx, "token_dev", "t1"))
			value, err := repo.Get(ctx, "token_dev")
			require.NoError(t, err)
			require.Equal(t, "t1", value)

			require.NoError(t, repo.Upsert(ctx, "token_dev", "t2"))
			value, err = repo.Get(ctx, "token_dev")
			require.NoError(t, err)
			require.Equal(t, "t2", value)

			require.NoError(t, repo.Delete(ctx, "token_dev"))
			_, err = repo.Get(ctx, "token_dev")
			require.ErrorIs(t, err, apperrors.ErrNotFound)

			require.NoError(t, repo.Delete(ctx, "token_dev"), "deleting an absent key is not an error")
		})
	}
}

func TestFileRepo_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.yaml")

	first, err := credentials.NewFileRepo(path)
	require.NoError(t, err)
	require.NoError(t, first.Upsert(ctx, "refreshToken_prod", "r1"))

	second, err := credentials.NewFileRepo(path)
	require.NoError(t, err)
	value, err := second.Get(ctx, "refreshToken_prod")
	require.NoError(t, err)
	require.Equal(t, "r1", value)
}

func TestNewRedisRepo_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = credentials.NewRedisRepo(context.Background(), credentials.RedisOptions{Addr: addr})
	require.Error(t, err)
	require.Contains(t, err.Error(), "redis ping failed")
}

type storeConfig struct {
	backend string
	file    string
}

func (c storeConfig) GetCredentialStore() string { return c.backend }
func (c storeConfig) GetCredentialFile() string  { return c.file }
func (c storeConfig) GetRedisAddr() string       { return "" }
func (c storeConfig) GetRedisPassword() string   { return "" }
func (c storeConfig) GetRedisDB() int            { return 0 }
func (c storeConfig) GetSQLitePath() string      { return c.file }

func TestOpenRepo(t *testing.T) {
	ctx := context.Background()

	repo, err := credentials.OpenRepo(ctx, storeConfig{backend: "memory"})
	require.NoError(t, err)
	require.IsType(t, &credentials.InMemoryRepo{}, repo)

	repo, err = credentials.OpenRepo(ctx, storeConfig{backend: "FILE", file: filepath.Join(t.TempDir(), "c.yaml")})
	require.NoError(t, err)
	require.IsType(t, &credentials.FileRepo{}, repo)

	_, err = credentials.OpenRepo(ctx, storeConfig{backend: "redis"})
	require.Error(t, err, "redis without an address is rejected")

	_, err = credentials.OpenRepo(ctx, storeConfig{backend: "cookies"})
	require.ErrorIs(t, err, apperrors.ErrUnknownBackend)
}
