package credentials_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-admin-session/authmodel"
	"github.com/jrsteele09/go-admin-session/credentials"
	apperrors "github.com/jrsteele09/go-admin-session/internal/errors"
	"github.com/stretchr/testify/require"
)

func newStore(namespace string) (*credentials.Store, *credentials.InMemoryRepo) {
	repo := credentials.NewInMemoryRepo()
	return credentials.NewStore(repo, credentials.Options{Namespace: namespace}), repo
}

func TestStore_GetSetClear(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore("dev")

	_, ok, err := store.Get(ctx, credentials.AccessToken)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, credentials.AccessToken, "t1"))
	value, ok, err := store.Get(ctx, credentials.AccessToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "t1", value)

	require.NoError(t, store.Set(ctx, credentials.AccessToken, ""), "empty value clears")
	_, ok, err = store.Get(ctx, credentials.AccessToken)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Clear(ctx, credentials.RefreshToken))
}

func TestStore_InvalidKind(t *testing.T) {
	store, _ := newStore("dev")
	_, _, err := store.Get(context.Background(), credentials.Kind("session"))
	require.ErrorIs(t, err, apperrors.ErrInvalidKind)
	require.ErrorIs(t, store.Set(context.Background(), credentials.Kind("session"), "x"), apperrors.ErrInvalidKind)
}

func TestStore_NamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	repo := credentials.NewInMemoryRepo()
	dev := credentials.NewStore(repo, credentials.Options{Namespace: "dev"})
	prod := credentials.NewStore(repo, credentials.Options{Namespace: "prod"})

	require.NoError(t, dev.SetTokens(ctx, "dev-access", "dev-refresh"))
	require.Equal(t, "", prod.AccessToken(ctx))
	require.Equal(t, "dev-access", dev.AccessToken(ctx))

	value, err := repo.Get(ctx, "token_dev")
	require.NoError(t, err)
	require.Equal(t, "dev-access", value)

	require.NoError(t, prod.ClearAll(ctx))
	require.Equal(t, "dev-refresh", dev.RefreshToken(ctx))
}

func TestStore_SetTokensSkipsEmpty(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore("dev")

	require.NoError(t, store.SetTokens(ctx, "a1", "r1"))
	require.NoError(t, store.SetTokens(ctx, "a2", ""))
	require.Equal(t, "a2", store.AccessToken(ctx))
	require.Equal(t, "r1", store.RefreshToken(ctx))
}

func TestStore_CachedUser(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore("dev")

	user, err := store.CachedUser(ctx)
	require.NoError(t, err)
	require.Nil(t, user)

	require.NoError(t, store.SetCachedUser(ctx, authmodel.User{ID: 4, Email: "a@example.com", GivenName: "Ada"}))
	user, err = store.CachedUser(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(4), user.ID)
	require.Equal(t, "Ada", user.GivenName)

	t.Run("wrapped login response", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, credentials.CachedUser, `{"access_token":"x","user":{"id":9,"email":"b@example.com"}}`))
		user, err := store.CachedUser(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(9), user.ID)
	})

	t.Run("corrupt value", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, credentials.CachedUser, "not-json"))
		_, err := store.CachedUser(ctx)
		require.Error(t, err)
	})
}

func TestStore_RecordAndClearAll(t *testing.T) {
	ctx := context.Background()
	store, repo := newStore("dev")

	require.NoError(t, store.SetTokens(ctx, "a1", "r1"))
	require.NoError(t, store.SetCachedUser(ctx, authmodel.User{ID: 1}))

	rec, err := store.Record(ctx)
	require.NoError(t, err)
	require.True(t, rec.Active())
	require.Equal(t, "r1", rec.RefreshToken)
	require.NotNil(t, rec.CachedUser)

	require.NoError(t, store.ClearAll(ctx))
	require.Equal(t, 0, repo.Len())

	rec, err = store.Record(ctx)
	require.NoError(t, err)
	require.False(t, rec.Active())
	require.Nil(t, rec.CachedUser)
}

func TestStore_Token(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore("dev")

	_, err := store.Token(ctx)
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	require.NoError(t, store.SetTokens(ctx, signed, "r1"))
	tok, err := store.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "r1", tok.RefreshToken)
	require.True(t, tok.Expiry.Equal(exp))
	require.True(t, tok.Valid())

	require.NoError(t, store.Set(ctx, credentials.AccessToken, "opaque-token"))
	tok, err = store.Token(ctx)
	require.NoError(t, err)
	require.True(t, tok.Expiry.IsZero(), "opaque tokens carry no expiry")
}

func TestAccessTokenExpiry(t *testing.T) {
	_, ok := credentials.AccessTokenExpiry("")
	require.False(t, ok)
	_, ok = credentials.AccessTokenExpiry("a.b.c")
	require.False(t, ok)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, ok = credentials.AccessTokenExpiry(signed)
	require.False(t, ok, "tokens without exp report no expiry")
}
