package credentials

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-admin-session/authmodel"
	apperrors "github.com/jrsteele09/go-admin-session/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Kind identifies one of the persisted credentials.
type Kind string

const (
	AccessToken  Kind = "token"
	RefreshToken Kind = "refreshToken"
	CachedUser   Kind = "user"
)

var kinds = []Kind{AccessToken, RefreshToken, CachedUser}

func (k Kind) valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Options configures a Store.
type Options struct {
	// Namespace is appended to every key so that deployments never collide (e.g. "token_prod").
	Namespace string
}

// Record is a snapshot of everything the store holds for one namespace.
type Record struct {
	AccessToken  string
	RefreshToken string
	CachedUser   *authmodel.User
}

// Active reports whether a session is considered active, i.e. an access token is present.
func (r Record) Active() bool {
	return r.AccessToken != ""
}

// Store is the credential store shared by the request pipeline and the auth gateway.
type Store struct {
	repo      Repo
	namespace string
}

// NewStore creates a Store over repo.
func NewStore(repo Repo, opts Options) *Store {
	return &Store{repo: repo, namespace: opts.Namespace}
}

// Namespace returns the key namespace of the store.
func (s *Store) Namespace() string {
	return s.namespace
}

func (s *Store) key(kind Kind) string {
	if s.namespace == "" {
		return string(kind)
	}
	return string(kind) + "_" + s.namespace
}

// Get returns the value stored for kind. ok is false when nothing is stored.
func (s *Store) Get(ctx context.Context, kind Kind) (value string, ok bool, err error) {
	if !kind.valid() {
		return "", false, apperrors.Wrapf(apperrors.ErrInvalidKind, "get %q", kind)
	}
	value, err = s.repo.Get(ctx, s.key(kind))
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("credentials get %s: %w", kind, err)
	}
	return value, value != "", nil
}

// Set stores value for kind. An empty value clears the entry.
func (s *Store) Set(ctx context.Context, kind Kind, value string) error {
	if !kind.valid() {
		return apperrors.Wrapf(apperrors.ErrInvalidKind, "set %q", kind)
	}
	if value == "" {
		return s.Clear(ctx, kind)
	}
	if err := s.repo.Upsert(ctx, s.key(kind), value); err != nil {
		return fmt.Errorf("credentials set %s: %w", kind, err)
	}
	return nil
}

// Clear removes the entry for kind. Clearing an absent entry is not an error.
func (s *Store) Clear(ctx context.Context, kind Kind) error {
	if !kind.valid() {
		return apperrors.Wrapf(apperrors.ErrInvalidKind, "clear %q", kind)
	}
	if err := s.repo.Delete(ctx, s.key(kind)); err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("credentials clear %s: %w", kind, err)
	}
	return nil
}

// ClearAll removes every credential in the namespace, attempting all kinds even if one fails.
func (s *Store) ClearAll(ctx context.Context) error {
	var errs []error
	for _, kind := range kinds {
		if err := s.Clear(ctx, kind); err != nil {
			errs = append(errs, err)
		}
	}
	return apperrors.Join(errs...)
}

// AccessToken returns the stored access token, or "" when absent or unreadable.
func (s *Store) AccessToken(ctx context.Context) string {
	return s.lookup(ctx, AccessToken)
}

// RefreshToken returns the stored refresh token, or "" when absent or unreadable.
func (s *Store) RefreshToken(ctx context.Context) string {
	return s.lookup(ctx, RefreshToken)
}

func (s *Store) lookup(ctx context.Context, kind Kind) string {
	value, _, err := s.Get(ctx, kind)
	if err != nil {
		log.Err(err).Str("kind", string(kind)).Msg("Failed to read credential")
		return ""
	}
	return value
}

// SetTokens persists the non-empty tokens of a pair.
func (s *Store) SetTokens(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken != "" {
		if err := s.Set(ctx, AccessToken, accessToken); err != nil {
			return err
		}
	}
	if refreshToken != "" {
		if err := s.Set(ctx, RefreshToken, refreshToken); err != nil {
			return err
		}
	}
	return nil
}

// CachedUser returns the cached identity, or nil when none is cached.
// Both a bare user document and a full login response ({"user": {...}}) are accepted.
func (s *Store) CachedUser(ctx context.Context) (*authmodel.User, error) {
	raw, ok, err := s.Get(ctx, CachedUser)
	if err != nil || !ok {
		return nil, err
	}

	var wrapped struct {
		User *authmodel.User `json:"user"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}

	var user authmodel.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return &user, nil
}

// SetCachedUser stores user as JSON.
func (s *Store) SetCachedUser(ctx context.Context, user authmodel.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode cached user: %w", err)
	}
	return s.Set(ctx, CachedUser, string(data))
}

// Record returns a snapshot of the stored credentials.
func (s *Store) Record(ctx context.Context) (Record, error) {
	var rec Record
	var err error
	if rec.AccessToken, _, err = s.Get(ctx, AccessToken); err != nil {
		return Record{}, err
	}
	if rec.RefreshToken, _, err = s.Get(ctx, RefreshToken); err != nil {
		return Record{}, err
	}
	if rec.CachedUser, err = s.CachedUser(ctx); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Token returns the stored pair as an oauth2.Token. Expiry is read from the
// access token's exp claim when it is a JWT and left zero otherwise.
// Returns ErrUnauthenticated when no access token is stored.
func (s *Store) Token(ctx context.Context) (*oauth2.Token, error) {
	rec, err := s.Record(ctx)
	if err != nil {
		return nil, err
	}
	if !rec.Active() {
		return nil, apperrors.ErrUnauthenticated
	}
	tok := &oauth2.Token{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		TokenType:    "Bearer",
	}
	if exp, ok := AccessTokenExpiry(rec.AccessToken); ok {
		tok.Expiry = exp
	}
	return tok, nil
}
