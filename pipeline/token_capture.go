package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/jrsteele09/go-admin-session/credentials"
	"github.com/rs/zerolog/log"
)

const headerRefreshToken = "RefreshToken"

// TokenCapture stores any fresh tokens carried by a response before anything else looks at it.
// It never changes the response or the error seen downstream.
func TokenCapture(store *credentials.Store) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (*Response, error) {
			resp, err := next(ctx, req)
			if err != nil {
				return resp, err
			}
			CaptureTokens(ctx, store, resp)
			return resp, nil
		}
	}
}

// CaptureTokens writes the tokens found in resp to store. Headers take priority over
// the body; the body is only read on a successful JSON response. Write failures are logged.
func CaptureTokens(ctx context.Context, store *credentials.Store, resp *Response) {
	if resp == nil {
		return
	}
	accessToken, refreshToken := tokensFromHeaders(resp)
	if accessToken == "" || refreshToken == "" {
		bodyAccess, bodyRefresh := tokensFromBody(resp)
		if accessToken == "" {
			accessToken = bodyAccess
		}
		if refreshToken == "" {
			refreshToken = bodyRefresh
		}
	}
	if accessToken == "" && refreshToken == "" {
		return
	}
	if err := store.SetTokens(ctx, accessToken, refreshToken); err != nil {
		log.Err(err).Msg("Failed to store captured tokens")
		return
	}
	log.Debug().
		Bool("access_token", accessToken != "").
		Bool("refresh_token", refreshToken != "").
		Msg("Captured tokens from response")
}

func tokensFromHeaders(resp *Response) (accessToken, refreshToken string) {
	if resp.Header == nil {
		return "", ""
	}
	accessToken = strings.TrimSpace(resp.Header.Get(headerAuthorization))
	if len(accessToken) >= len(bearerPrefix) && strings.EqualFold(accessToken[:len(bearerPrefix)], bearerPrefix) {
		accessToken = strings.TrimSpace(accessToken[len(bearerPrefix):])
	}
	return accessToken, strings.TrimSpace(resp.Header.Get(headerRefreshToken))
}

func tokensFromBody(resp *Response) (accessToken, refreshToken string) {
	if !resp.OK() || !looksLikeJSONObject(resp) {
		return "", ""
	}
	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", ""
	}
	return body.AccessToken, body.RefreshToken
}

func looksLikeJSONObject(resp *Response) bool {
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		return true
	}
	return bytes.HasPrefix(bytes.TrimSpace(resp.Body), []byte("{"))
}
