package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jrsteele09/go-admin-session/auth"
	"github.com/jrsteele09/go-admin-session/credentials"
	"github.com/jrsteele09/go-admin-session/internal/config"
	"github.com/jrsteele09/go-admin-session/pipeline"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// app is everything a command needs, built once per invocation.
type app struct {
	cfg     config.Config
	repo    credentials.Repo
	gateway *auth.Gateway
}

func newApp(ctx context.Context, configPath string, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg, stderr)

	repo, err := credentials.OpenRepo(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	store := credentials.NewStore(repo, credentials.Options{Namespace: cfg.GetStorageNamespace()})

	dispatcher := pipeline.NewHTTPDispatcher(cfg.GetBaseURL(), cfg.GetRequestTimeout())
	gateway := auth.NewGateway(store, dispatcher.Handler(),
		pipeline.WithLogoutHandler(reloginHint(cfg.GetLoginRoute(), stderr)),
	)

	log.Debug().
		Str("base_url", cfg.GetBaseURL()).
		Str("store", cfg.GetCredentialStore()).
		Str("namespace", store.Namespace()).
		Msg("Client ready")

	return &app{cfg: cfg, repo: repo, gateway: gateway}, nil
}

func (a *app) Close() error {
	if a == nil || a.repo == nil {
		return nil
	}
	return a.repo.Close()
}

func setupLogging(cfg config.EnvConfig, w io.Writer) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if w == nil {
		w = os.Stderr
	}
	if cfg.GetEnv() == "DEV" {
		w = zerolog.ConsoleWriter{Out: w}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// reloginHint is the CLI's forced-logout side effect: the stored session is already gone,
// so point the user back at the login command.
func reloginHint(loginRoute string, w io.Writer) pipeline.LogoutHandler {
	redirect := pipeline.RedirectToLogin(loginRoute)
	return func(ctx context.Context, reason error) {
		redirect(ctx, reason)
		fmt.Fprintf(w, "Your session has ended (%s). Run 'adminctl login' to sign in again.\n", reason)
	}
}
