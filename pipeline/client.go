package pipeline

import (
	"context"

	"github.com/jrsteele09/go-admin-session/credentials"
	apperrors "github.com/jrsteele09/go-admin-session/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

type options struct {
	refresher      Refresher
	onLogout       LogoutHandler
	coordinator    *Coordinator
	registerer     prometheus.Registerer
	headerExempt   []string
	recoveryExempt []string
}

// Option configures a Client.
type Option func(*options)

// WithRefresher sets the operation used to renew an expired session.
// Without one, every expired session ends in a forced logout.
func WithRefresher(r Refresher) Option {
	return func(o *options) {
		o.refresher = r
	}
}

// WithLogoutHandler sets the forced-logout side effect. Defaults to RedirectToLogin("/login").
func WithLogoutHandler(h LogoutHandler) Option {
	return func(o *options) {
		o.onLogout = h
	}
}

// WithCoordinator injects the refresh coordinator, e.g. to observe it from tests.
func WithCoordinator(c *Coordinator) Option {
	return func(o *options) {
		o.coordinator = c
	}
}

// WithMetricsRegisterer registers the client's collectors with reg.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithPublicEndpoints overrides the header and recovery allowlists.
func WithPublicEndpoints(headerExempt, recoveryExempt []string) Option {
	return func(o *options) {
		o.headerExempt = headerExempt
		o.recoveryExempt = recoveryExempt
	}
}

// Client runs requests through the full pipeline:
// instrumentation → session recovery → token capture → request ID → auth header → dispatch.
type Client struct {
	handler     Handler
	coordinator *Coordinator
	metrics     *Metrics
}

// New builds a Client around dispatch, the innermost handler (usually HTTPDispatcher.Handler()).
func New(dispatch Handler, store *credentials.Store, opts ...Option) *Client {
	o := options{
		headerExempt:   DefaultHeaderExempt,
		recoveryExempt: DefaultRecoveryExempt,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.coordinator == nil {
		o.coordinator = NewCoordinator()
	}
	if o.onLogout == nil {
		o.onLogout = RedirectToLogin("/login")
	}

	c := &Client{
		coordinator: o.coordinator,
		metrics:     NewMetrics(o.registerer),
	}
	recovery := &SessionRecovery{
		store:       store,
		coordinator: o.coordinator,
		refresher:   o.refresher,
		onLogout:    o.onLogout,
		exempt:      o.recoveryExempt,
		metrics:     c.metrics,
	}
	c.handler = Chain(dispatch,
		c.instrument,
		recovery.Middleware(),
		TokenCapture(store),
		RequestID(),
		AuthHeader(store, o.headerExempt),
	)
	return c
}

// Do sends req and returns the response of a successful (< 400) outcome. Errors are
// *errors.APIError, or wrap ErrTransport, ErrSessionExpired or ErrRefreshRejected.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	return c.handler(ctx, req)
}

// Coordinator returns the client's refresh coordinator.
func (c *Client) Coordinator() *Coordinator {
	return c.coordinator
}

// Metrics returns the client's collectors.
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

func (c *Client) instrument(next Handler) Handler {
	return func(ctx context.Context, req *Request) (*Response, error) {
		resp, err := next(ctx, req)
		outcome := outcomeOf(err)
		c.metrics.Requests.WithLabelValues(req.Method, outcome).Inc()

		event := log.Debug()
		if err != nil {
			event = event.Err(err)
		}
		event.Str("method", req.Method).Str("path", req.Path).Str("outcome", outcome).Msg("Request completed")
		return resp, err
	}
}

func outcomeOf(err error) string {
	var apiErr *apperrors.APIError
	switch {
	case err == nil:
		return OutcomeOK
	case apperrors.Is(err, apperrors.ErrSessionExpired), apperrors.Is(err, apperrors.ErrRefreshRejected):
		return OutcomeSessionEnded
	case apperrors.As(err, &apiErr):
		return OutcomeAPIError
	default:
		return OutcomeTransportError
	}
}
