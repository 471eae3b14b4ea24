package authmodel

import (
	"time"

	"github.com/jrsteele09/go-admin-session/internal/utils"
	"golang.org/x/oauth2"
)

// TokenResponse is the body returned by the login and refresh endpoints.
// Token fields sit at the root of the document, not in a nested object.
type TokenResponse struct {
	// AccessToken is the short-lived bearer credential.
	// Usage: Include in Authorization header: "Bearer <access_token>"
	AccessToken *string `json:"access_token,omitempty"`

	// RefreshToken is exchanged at /auth/refresh for a new pair.
	// Rotates on each use.
	RefreshToken *string `json:"refresh_token,omitempty"`

	// TokenType is "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in,omitempty"`

	// User is only present on login responses.
	User *User `json:"user,omitempty"`

	// Message is set by some backends when the refresh is refused with a 2xx.
	Message string `json:"message,omitempty"`
}

// HasAccessToken reports whether the response carries a non-empty access token.
func (t *TokenResponse) HasAccessToken() bool {
	return t != nil && utils.Value(t.AccessToken) != ""
}

// OAuth2Token converts the response into an oauth2.Token, using now to compute expiry.
func (t *TokenResponse) OAuth2Token(now time.Time) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  utils.Value(t.AccessToken),
		RefreshToken: utils.Value(t.RefreshToken),
		TokenType:    t.TokenType,
	}
	if t.ExpiresIn > 0 {
		tok.Expiry = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return tok
}
