package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-admin-session/authmodel"
	"github.com/jrsteele09/go-admin-session/internal/config"
	apperrors "github.com/jrsteele09/go-admin-session/internal/errors"
	"github.com/spf13/cobra"
)

const passwordVar = "ADMINCTL_PASSWORD"

func loginCmd(current func() *app) *cobra.Command {
	var creds authmodel.LoginCredentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Long:  "Log in with email and password. The password may also be supplied via " + passwordVar + ".",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if creds.Password == "" {
				creds.Password = config.GetEnv(passwordVar, "")
			}
			if creds.Email == "" || creds.Password == "" {
				return errors.New("email and password are required")
			}

			tokens, err := current().gateway.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			name := creds.Email
			if tokens.User != nil && tokens.User.DisplayName() != "" {
				name = tokens.User.DisplayName()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&creds.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "Account password")
	return cmd
}

func logoutCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := current().gateway.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			if err != nil {
				// Local credentials are gone regardless.
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", err)
			}
			return nil
		},
	}
}

func whoamiCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := current().gateway.WhoAmI(cmd.Context())
			if apperrors.Is(err, apperrors.ErrUnauthenticated) {
				return errors.New("not logged in")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (id %d)\n", user.DisplayName(), user.Email, user.ID)
			return nil
		},
	}
}

func statusCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session without contacting the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			status, err := a.gateway.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend:    %s\n", a.cfg.GetBaseURL())
			fmt.Fprintf(out, "Namespace:  %s\n", a.gateway.Store().Namespace())
			if !status.LoggedIn {
				fmt.Fprintln(out, "Session:    logged out")
				return nil
			}
			fmt.Fprintln(out, "Session:    logged in")
			if status.User != nil {
				fmt.Fprintf(out, "User:       %s\n", status.User.Email)
			}
			fmt.Fprintf(out, "Refresh:    %t\n", status.HasRefreshToken)
			if !status.AccessTokenExpiry.IsZero() {
				state := "valid"
				if status.Expired(time.Now()) {
					state = "expired"
				}
				fmt.Fprintf(out, "Expires:    %s (%s)\n", status.AccessTokenExpiry.Local().Format(time.RFC3339), state)
			}
			return nil
		},
	}
}
