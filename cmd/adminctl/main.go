package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newCLI().Execute(ctx)
}

type rootOptions struct {
	configPath string
	banner     bool
}

// cli owns the root command and the app built for the running command.
type cli struct {
	root *cobra.Command
	app  *app
}

// Execute runs the command line and closes the credential store even when the command fails.
func (c *cli) Execute(ctx context.Context) error {
	err := c.root.ExecuteContext(ctx)
	if closeErr := c.app.Close(); closeErr != nil {
		log.Err(closeErr).Msg("Failed to close credential store")
		err = errors.Join(err, closeErr)
	}
	return err
}

func newCLI() *cli {
	opts := &rootOptions{}
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "adminctl",
		Short: "Admin client for the REST backend with automatic session recovery",
		Long: `adminctl talks to the admin REST backend on your behalf.

Credentials are persisted between runs. Requests that fail because the
access token expired are refreshed once and replayed transparently; if
the session cannot be recovered you are logged out and asked to log in again.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			c.app = a
			if opts.banner {
				displayAppname(cmd, a.cfg.GetAppName())
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (defaults to $CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVar(&opts.banner, "banner", false, "Print the application banner")

	current := func() *app { return c.app }
	rootCmd.AddCommand(
		loginCmd(current),
		logoutCmd(current),
		whoamiCmd(current),
		statusCmd(current),
		requestCmd(current),
		fetchCmd(current),
	)
	c.root = rootCmd
	return c
}

func displayAppname(cmd *cobra.Command, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(cmd.OutOrStdout(), myFigure.String())
}
