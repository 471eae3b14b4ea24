package pipeline

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-admin-session/authmodel"
	"github.com/jrsteele09/go-admin-session/credentials"
	apperrors "github.com/jrsteele09/go-admin-session/internal/errors"
	"github.com/jrsteele09/go-admin-session/internal/utils"
	"github.com/rs/zerolog/log"
)

// Refresher exchanges a refresh token for a new token pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*authmodel.TokenResponse, error)
}

// LogoutHandler is the forced-logout side effect, run after credentials were cleared.
type LogoutHandler func(ctx context.Context, reason error)

// RedirectToLogin returns the default LogoutHandler, which records the redirect to loginRoute.
func RedirectToLogin(loginRoute string) LogoutHandler {
	return func(_ context.Context, reason error) {
		log.Warn().Err(reason).Str("location", loginRoute).Msg("Session ended, redirecting to login")
	}
}

// SessionRecovery turns 401/403 responses into a single coordinated refresh followed by
// replays, and every other response into the caller's final outcome.
type SessionRecovery struct {
	store       *credentials.Store
	coordinator *Coordinator
	refresher   Refresher
	onLogout    LogoutHandler
	exempt      []string
	metrics     *Metrics
}

// Middleware returns the stage as a chain element. next must re-attach credentials,
// since replays are sent through it after the store has been updated.
func (s *SessionRecovery) Middleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (*Response, error) {
			sentWith := s.store.AccessToken(ctx)
			resp, err := next(ctx, req)
			if err != nil {
				// No response: nothing to inspect, never refresh.
				return nil, err
			}
			if isSessionExpired(resp.Status) && !matchesEndpoint(req.Path, s.exempt) {
				return s.recover(ctx, next, req, sentWith)
			}
			return settle(resp)
		}
	}
}

func (s *SessionRecovery) recover(ctx context.Context, next Handler, req *Request, sentWith string) (*Response, error) {
	if s.refreshedSince(ctx, sentWith) {
		return s.replay(ctx, next, req, s.coordinator.current())
	}

	w, leader, episode := s.coordinator.acquire(req)
	if leader {
		return s.lead(ctx, next, req, sentWith, episode)
	}

	s.metrics.Waiting.Inc()
	err := w.wait(ctx)
	s.metrics.Waiting.Dec()
	if err != nil {
		return nil, err
	}
	return s.replay(ctx, next, w.req, w.episode)
}

// refreshedSince reports whether the stored access token changed after req was sent,
// meaning another refresh already completed and a replay is enough.
func (s *SessionRecovery) refreshedSince(ctx context.Context, sentWith string) bool {
	current := s.store.AccessToken(ctx)
	return current != "" && current != sentWith
}

func (s *SessionRecovery) lead(ctx context.Context, next Handler, req *Request, sentWith string, episode uint64) (*Response, error) {
	if s.refreshedSince(ctx, sentWith) {
		s.coordinator.release(nil)
		return s.replay(ctx, next, req, episode)
	}

	refreshToken := s.store.RefreshToken(ctx)
	if refreshToken == "" || s.refresher == nil {
		s.metrics.Refreshes.WithLabelValues(OutcomeNoRefreshToken).Inc()
		err := apperrors.Wrapf(apperrors.ErrSessionExpired, "%s", req)
		s.endSession(ctx, err, true, episode)
		return nil, err
	}

	log.Info().Str("request", req.String()).Msg("Access token expired, refreshing")

	// The refresh outlives the triggering caller: waiters depend on its outcome.
	tokens, err := s.refresher.Refresh(context.WithoutCancel(ctx), refreshToken)
	if err == nil && !tokens.HasAccessToken() {
		err = fmt.Errorf("%w: unable to refresh token", apperrors.ErrRefreshRejected)
		if tokens != nil && tokens.Message != "" {
			err = fmt.Errorf("%w: %s", apperrors.ErrRefreshRejected, tokens.Message)
		}
	}
	if err != nil {
		// Any failed refresh ends the session, whatever the cause.
		if !apperrors.Is(err, apperrors.ErrRefreshRejected) {
			err = fmt.Errorf("%w: %w", apperrors.ErrRefreshRejected, err)
		}
		s.metrics.Refreshes.WithLabelValues(OutcomeFailure).Inc()
		s.endSession(ctx, err, true, episode)
		return nil, err
	}

	if err := s.store.SetTokens(ctx, utils.Value(tokens.AccessToken), utils.Value(tokens.RefreshToken)); err != nil {
		log.Err(err).Msg("Failed to persist refreshed tokens")
	}
	s.metrics.Refreshes.WithLabelValues(OutcomeSuccess).Inc()
	released := s.coordinator.release(nil)
	log.Info().Int("waiters", released).Msg("Token refreshed, replaying queued requests")

	return s.replay(ctx, next, req, episode)
}

// replay re-sends req once after the refresh of episode. A second session-expired response
// ends the session instead of refreshing again.
func (s *SessionRecovery) replay(ctx context.Context, next Handler, req *Request, episode uint64) (*Response, error) {
	resp, err := next(ctx, req.Clone())
	if err != nil {
		s.metrics.Replays.WithLabelValues(OutcomeTransportError).Inc()
		return nil, err
	}
	if isSessionExpired(resp.Status) {
		s.metrics.Replays.WithLabelValues(OutcomeSessionEnded).Inc()
		err := fmt.Errorf("%w: %s rejected after refresh: %w", apperrors.ErrRefreshRejected, req, toAPIError(resp))
		s.endSession(ctx, err, false, episode)
		return nil, err
	}
	if resp.OK() {
		s.metrics.Replays.WithLabelValues(OutcomeOK).Inc()
	} else {
		s.metrics.Replays.WithLabelValues(OutcomeAPIError).Inc()
	}
	return settle(resp)
}

// endSession ends the session once per refresh episode: the first caller clears all
// credentials and runs the forced-logout side effect, later replays of the same episode
// only fail. The leader always settles its queued waiters with reason.
func (s *SessionRecovery) endSession(ctx context.Context, reason error, leader bool, episode uint64) {
	claimed := s.coordinator.claimLogout(episode)
	if claimed {
		if err := s.store.ClearAll(context.WithoutCancel(ctx)); err != nil {
			log.Err(err).Msg("Failed to clear credentials")
		}
	}
	rejected := 0
	if leader {
		rejected = s.coordinator.release(reason)
	}
	if !claimed {
		return
	}
	s.metrics.ForcedLogouts.Inc()
	log.Info().Err(reason).Int("waiters", rejected).Msg("Session could not be recovered")
	s.onLogout(ctx, reason)
}
