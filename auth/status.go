package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/go-admin-session/authmodel"
)

// SessionStatus describes the local session without contacting the backend.
type SessionStatus struct {
	LoggedIn        bool
	HasRefreshToken bool
	User            *authmodel.User
	// AccessTokenExpiry is zero when the access token is not a JWT carrying exp.
	AccessTokenExpiry time.Time
}

// Expired reports whether the access token's exp claim is in the past at now.
func (s SessionStatus) Expired(now time.Time) bool {
	return !s.AccessTokenExpiry.IsZero() && now.After(s.AccessTokenExpiry)
}

// Status reads the session from the credential store.
func (g *Gateway) Status(ctx context.Context) (SessionStatus, error) {
	rec, err := g.store.Record(ctx)
	if err != nil {
		return SessionStatus{}, err
	}
	status := SessionStatus{
		LoggedIn:        rec.Active(),
		HasRefreshToken: rec.RefreshToken != "",
		User:            rec.CachedUser,
	}
	if !status.LoggedIn {
		return status, nil
	}
	tok, err := g.store.Token(ctx)
	if err != nil {
		return SessionStatus{}, err
	}
	status.AccessTokenExpiry = tok.Expiry
	return status, nil
}
