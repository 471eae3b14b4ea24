package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-admin-session/credentials"
)

const (
	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-ID"
	bearerPrefix        = "Bearer "
)

// AuthHeader attaches "Authorization: Bearer <token>" from the store to every request
// that is not in exempt. A missing token is not an error; the backend decides.
func AuthHeader(store *credentials.Store, exempt []string) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (*Response, error) {
			if matchesEndpoint(req.Path, exempt) {
				return next(ctx, req)
			}
			token := store.AccessToken(ctx)
			if token == "" {
				return next(ctx, req)
			}
			decorated := req.Clone()
			decorated.Header.Set(headerAuthorization, bearerPrefix+token)
			return next(ctx, decorated)
		}
	}
}

// RequestID tags each outgoing request with a fresh X-Request-ID unless the caller set one.
func RequestID() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (*Response, error) {
			if req.Header.Get(headerRequestID) != "" {
				return next(ctx, req)
			}
			tagged := req.Clone()
			tagged.Header.Set(headerRequestID, uuid.NewString())
			return next(ctx, tagged)
		}
	}
}
