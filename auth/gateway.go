package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-admin-session/authmodel"
	"github.com/jrsteele09/go-admin-session/credentials"
	apperrors "github.com/jrsteele09/go-admin-session/internal/errors"
	"github.com/jrsteele09/go-admin-session/internal/utils"
	"github.com/jrsteele09/go-admin-session/pipeline"
	"github.com/rs/zerolog/log"
)

var _ pipeline.Refresher = (*Gateway)(nil)

// Gateway exposes the backend's auth operations and owns the request pipeline that every
// other call goes through. It is also the pipeline's Refresher.
type Gateway struct {
	store  *credentials.Store
	client *pipeline.Client
}

// NewGateway builds a gateway and its pipeline client around dispatch.
func NewGateway(store *credentials.Store, dispatch pipeline.Handler, opts ...pipeline.Option) *Gateway {
	g := &Gateway{store: store}
	g.client = pipeline.New(dispatch, store, append([]pipeline.Option{pipeline.WithRefresher(g)}, opts...)...)
	return g
}

// Client returns the pipeline client shared by all gateway calls.
func (g *Gateway) Client() *pipeline.Client {
	return g.client
}

// Store returns the credential store.
func (g *Gateway) Store() *credentials.Store {
	return g.store
}

// Login authenticates and persists the returned tokens and user.
// A 400/401/403 reply is reported as ErrInvalidCredentials.
func (g *Gateway) Login(ctx context.Context, creds authmodel.LoginCredentials) (*authmodel.TokenResponse, error) {
	var tokens authmodel.TokenResponse
	err := g.Do(ctx, http.MethodPost, authmodel.RouteLogin, creds, &tokens)
	if err != nil {
		switch apperrors.StatusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidCredentials, err)
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if !tokens.HasAccessToken() {
		return nil, fmt.Errorf("login: %w: response carried no access token", apperrors.ErrInvalidCredentials)
	}

	if err := g.store.SetTokens(ctx, utils.Value(tokens.AccessToken), utils.Value(tokens.RefreshToken)); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if tokens.User != nil {
		err = g.store.SetCachedUser(ctx, *tokens.User)
	} else {
		err = g.store.Clear(ctx, credentials.CachedUser)
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	event := log.Info().Str("email", creds.Email)
	if tok := tokens.OAuth2Token(time.Now()); !tok.Expiry.IsZero() {
		event = event.Time("expires_at", tok.Expiry)
	}
	event.Msg("Logged in")
	return &tokens, nil
}

// Refresh exchanges refreshToken for a new pair and persists it. Any backend rejection, or a
// reply without an access token, is reported as ErrRefreshRejected.
func (g *Gateway) Refresh(ctx context.Context, refreshToken string) (*authmodel.TokenResponse, error) {
	var tokens authmodel.TokenResponse
	err := g.Do(ctx, http.MethodPost, authmodel.RouteRefresh, authmodel.RefreshRequest{RefreshToken: refreshToken}, &tokens)
	if err != nil {
		if apperrors.StatusOf(err) != 0 {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrRefreshRejected, err)
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if !tokens.HasAccessToken() {
		if tokens.Message != "" {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrRefreshRejected, tokens.Message)
		}
		return nil, fmt.Errorf("%w: unable to refresh token", apperrors.ErrRefreshRejected)
	}
	if err := g.store.SetTokens(ctx, utils.Value(tokens.AccessToken), utils.Value(tokens.RefreshToken)); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return &tokens, nil
}

// Logout tells the backend the session is over, best-effort, then always clears local
// credentials. The returned error is informational: the local session is gone either way.
func (g *Gateway) Logout(ctx context.Context) error {
	_, remoteErr := g.client.Do(ctx, pipeline.NewRequest(http.MethodPost, authmodel.RouteLogout, nil))
	if remoteErr != nil {
		log.Err(remoteErr).Msg("Logout: backend call failed, clearing local session anyway")
		remoteErr = fmt.Errorf("logout: %w", remoteErr)
	}
	if err := g.store.ClearAll(ctx); err != nil {
		return apperrors.Join(remoteErr, fmt.Errorf("logout: clear credentials: %w", err))
	}
	return remoteErr
}

// WhoAmI returns the cached user, or fetches and caches /auth/me.
// Without an access token no request is made. If the fetch fails the access token and
// cached user are dropped and ErrUnauthenticated is returned.
func (g *Gateway) WhoAmI(ctx context.Context) (*authmodel.User, error) {
	cached, err := g.store.CachedUser(ctx)
	if err != nil {
		log.Err(err).Msg("Ignoring unreadable cached user")
	}
	if cached != nil {
		return cached, nil
	}

	if g.store.AccessToken(ctx) == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	var user authmodel.User
	if err := g.Do(ctx, http.MethodGet, authmodel.RouteMe, nil, &user); err != nil {
		if clearErr := g.store.Clear(ctx, credentials.AccessToken); clearErr != nil {
			log.Err(clearErr).Msg("Failed to clear access token")
		}
		if clearErr := g.store.Clear(ctx, credentials.CachedUser); clearErr != nil {
			log.Err(clearErr).Msg("Failed to clear cached user")
		}
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, err)
	}

	if err := g.store.SetCachedUser(ctx, user); err != nil {
		log.Err(err).Msg("Failed to cache user")
	}
	return &user, nil
}
