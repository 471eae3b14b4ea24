package pipeline_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jrsteele09/go-admin-session/credentials"
	"github.com/jrsteele09/go-admin-session/pipeline"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *credentials.Store {
	t.Helper()
	return credentials.NewStore(credentials.NewInMemoryRepo(), credentials.Options{Namespace: "test"})
}

// capture records the last request reaching the innermost handler and replies with resp.
func capture(resp *pipeline.Response, seen **pipeline.Request) pipeline.Handler {
	return func(_ context.Context, req *pipeline.Request) (*pipeline.Response, error) {
		*seen = req
		return resp, nil
	}
}

func TestAuthHeader(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SetTokens(ctx, "T1", "R1"))

	var seen *pipeline.Request
	h := pipeline.Chain(capture(&pipeline.Response{Status: 200}, &seen), pipeline.AuthHeader(store, pipeline.DefaultHeaderExempt))

	t.Run("protected endpoint", func(t *testing.T) {
		req := pipeline.NewRequest("GET", "/job-offers", nil)
		_, err := h(ctx, req)
		require.NoError(t, err)
		require.Equal(t, "Bearer T1", seen.Header.Get("Authorization"))
		require.Empty(t, req.Header.Get("Authorization"), "caller's request is untouched")
	})

	t.Run("public endpoints", func(t *testing.T) {
		for _, path := range []string{"/auth/login", "/auth/register", "/auth/refresh", "/api/v1/auth/login?x=1"} {
			_, err := h(ctx, pipeline.NewRequest("POST", path, nil))
			require.NoError(t, err)
			require.Empty(t, seen.Header.Get("Authorization"), path)
		}
	})

	t.Run("logout carries the token", func(t *testing.T) {
		_, err := h(ctx, pipeline.NewRequest("POST", "/auth/logout", nil))
		require.NoError(t, err)
		require.Equal(t, "Bearer T1", seen.Header.Get("Authorization"))
	})

	t.Run("no token", func(t *testing.T) {
		require.NoError(t, store.ClearAll(ctx))
		_, err := h(ctx, pipeline.NewRequest("GET", "/job-offers", nil))
		require.NoError(t, err)
		require.Empty(t, seen.Header.Get("Authorization"))
	})
}

func TestRequestID(t *testing.T) {
	var seen *pipeline.Request
	h := pipeline.Chain(capture(&pipeline.Response{Status: 200}, &seen), pipeline.RequestID())

	_, err := h(context.Background(), pipeline.NewRequest("GET", "/services", nil))
	require.NoError(t, err)
	first := seen.Header.Get("X-Request-ID")
	require.Len(t, first, 36)

	_, err = h(context.Background(), pipeline.NewRequest("GET", "/services", nil))
	require.NoError(t, err)
	require.NotEqual(t, first, seen.Header.Get("X-Request-ID"))

	req := pipeline.NewRequest("GET", "/services", nil)
	req.Header.Set("X-Request-ID", "caller-chosen")
	_, err = h(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "caller-chosen", seen.Header.Get("X-Request-ID"))
}

func jsonResponse(status int, body string) *pipeline.Response {
	return &pipeline.Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   []byte(body),
	}
}

func TestCaptureTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("body", func(t *testing.T) {
		store := newStore(t)
		pipeline.CaptureTokens(ctx, store, jsonResponse(200, `{"access_token":"A","refresh_token":"R"}`))
		require.Equal(t, "A", store.AccessToken(ctx))
		require.Equal(t, "R", store.RefreshToken(ctx))
	})

	t.Run("headers win over body", func(t *testing.T) {
		store := newStore(t)
		resp := jsonResponse(200, `{"access_token":"body-A","refresh_token":"body-R"}`)
		resp.Header.Set("Authorization", "Bearer header-A")
		resp.Header.Set("RefreshToken", "header-R")
		pipeline.CaptureTokens(ctx, store, resp)
		require.Equal(t, "header-A", store.AccessToken(ctx))
		require.Equal(t, "header-R", store.RefreshToken(ctx))
	})

	t.Run("header access token, body refresh token", func(t *testing.T) {
		store := newStore(t)
		resp := jsonResponse(200, `{"refresh_token":"body-R"}`)
		resp.Header.Set("Authorization", "header-A")
		pipeline.CaptureTokens(ctx, store, resp)
		require.Equal(t, "header-A", store.AccessToken(ctx))
		require.Equal(t, "body-R", store.RefreshToken(ctx))
	})

	t.Run("partial pair keeps the other token", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.SetTokens(ctx, "old-A", "old-R"))
		pipeline.CaptureTokens(ctx, store, jsonResponse(200, `{"access_token":"new-A"}`))
		require.Equal(t, "new-A", store.AccessToken(ctx))
		require.Equal(t, "old-R", store.RefreshToken(ctx))
	})

	t.Run("error and non-JSON bodies are ignored", func(t *testing.T) {
		store := newStore(t)
		pipeline.CaptureTokens(ctx, store, jsonResponse(401, `{"access_token":"A"}`))
		pipeline.CaptureTokens(ctx, store, &pipeline.Response{Status: 200, Header: http.Header{}, Body: []byte("access_token")})
		pipeline.CaptureTokens(ctx, store, nil)
		require.Empty(t, store.AccessToken(ctx))
	})

	t.Run("idempotent", func(t *testing.T) {
		store := newStore(t)
		resp := jsonResponse(200, `{"access_token":"A","refresh_token":"R"}`)
		pipeline.CaptureTokens(ctx, store, resp)
		first, err := store.Record(ctx)
		require.NoError(t, err)
		pipeline.CaptureTokens(ctx, store, resp)
		second, err := store.Record(ctx)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})
}

func TestTokenCapture_LeavesResponseUntouched(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	body := `{"access_token":"A","refresh_token":"R","user":{"id":1}}`

	var seen *pipeline.Request
	h := pipeline.Chain(capture(jsonResponse(200, body), &seen), pipeline.TokenCapture(store))
	resp, err := h(ctx, pipeline.NewRequest("POST", "/auth/login", nil))
	require.NoError(t, err)
	require.JSONEq(t, body, string(resp.Body))
	require.Equal(t, "A", store.AccessToken(ctx))
}
