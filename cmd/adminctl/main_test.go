package main

import (
	"bytes"
	"context"
	"net/http"
	"path/filepath"
	"testing"

	apperrors "github.com/jrsteele09/go-admin-session/internal/errors"
	"github.com/jrsteele09/go-admin-session/internal/testbackend"
	"github.com/stretchr/testify/require"
)

func setupCLI(t *testing.T) *testbackend.Backend {
	t.Helper()
	backend := testbackend.New(t)
	backend.SetNextTokens("T1", "R1")

	t.Setenv("API_BASE_URL", backend.BaseURL())
	t.Setenv("CREDENTIAL_STORE", "file")
	t.Setenv("CREDENTIAL_FILE", filepath.Join(t.TempDir(), "credentials.yaml"))
	t.Setenv("UNIVERSE", "cli-test")
	t.Setenv("ENV", "PROD")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv(passwordVar, "")
	return backend
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	stdout, stderr, _, err = executeCLI(t, args...)
	return stdout, stderr, err
}

func executeCLI(t *testing.T, args ...string) (stdout, stderr string, c *cli, err error) {
	t.Helper()
	c = newCLI()
	var out, errOut bytes.Buffer
	c.root.SetOut(&out)
	c.root.SetErr(&errOut)
	c.root.SetArgs(args)
	err = c.Execute(context.Background())
	return out.String(), errOut.String(), c, err
}

func TestCLI_SessionLifecycle(t *testing.T) {
	backend := setupCLI(t)

	out, _, err := execute(t, "login", "--email", "admin@example.com", "--password", "s3cret")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as Ada Lovelace")

	out, _, err = execute(t, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Ada Lovelace <admin@example.com> (id 1)")

	out, _, err = execute(t, "status")
	require.NoError(t, err)
	require.Contains(t, out, "Session:    logged in")
	require.Contains(t, out, "Namespace:  cli-test")

	backend.SetNextTokens("T2", "R2")
	backend.ExpireAccess()

	out, _, err = execute(t, "fetch", "/job-offers", "/services")
	require.NoError(t, err)
	require.Contains(t, out, "# /job-offers")
	require.Contains(t, out, `"kind": "service"`)
	require.Equal(t, 1, backend.RefreshCalls())

	out, _, err = execute(t, "request", "post", "/services", "--data", `{"name":"cleaning"}`)
	require.NoError(t, err)
	require.Contains(t, out, `"name": "cleaning"`)
	services := backend.Requests("/services")
	require.Equal(t, "Bearer T2", services[len(services)-1].Authorization)

	out, _, err = execute(t, "logout")
	require.NoError(t, err)
	require.Contains(t, out, "Logged out")
	require.Equal(t, 1, backend.LogoutCalls())

	out, _, err = execute(t, "status")
	require.NoError(t, err)
	require.Contains(t, out, "Session:    logged out")

	_, _, err = execute(t, "whoami")
	require.EqualError(t, err, "not logged in")
}

func TestCLI_LoginFromEnvironment(t *testing.T) {
	setupCLI(t)
	t.Setenv(passwordVar, "s3cret")

	out, _, err := execute(t, "login", "-e", "admin@example.com")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in")
}

func TestCLI_LoginRejected(t *testing.T) {
	setupCLI(t)

	_, _, err := execute(t, "login", "--email", "admin@example.com", "--password", "wrong")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, _, err = execute(t, "login", "--email", "admin@example.com")
	require.EqualError(t, err, "email and password are required")
}

func TestCLI_ForcedLogoutPrintsHint(t *testing.T) {
	backend := setupCLI(t)

	_, _, err := execute(t, "login", "--email", "admin@example.com", "--password", "s3cret")
	require.NoError(t, err)

	backend.ExpireAccess()
	backend.RejectRefresh(http.StatusUnauthorized)

	_, stderr, err := execute(t, "request", "GET", "/job-offers")
	require.ErrorIs(t, err, apperrors.ErrRefreshRejected)
	require.Contains(t, stderr, "Run 'adminctl login' to sign in again")

	out, _, err := execute(t, "status")
	require.NoError(t, err)
	require.Contains(t, out, "logged out")
}

func TestCLI_RequestValidation(t *testing.T) {
	setupCLI(t)

	_, _, err := execute(t, "request", "POST", "/services", "--data", "{not json")
	require.EqualError(t, err, "--data is not valid JSON")

	_, _, err = execute(t, "request", "GET")
	require.Error(t, err)
}

func TestCLI_Banner(t *testing.T) {
	setupCLI(t)
	t.Setenv("APP_NAME", "Admin")

	out, _, err := execute(t, "--banner", "status")
	require.NoError(t, err)
	require.Contains(t, out, "Session:")
	require.Greater(t, bytes.Count([]byte(out), []byte("\n")), 4)
}

func TestCLI_ClosesStoreWhenCommandFails(t *testing.T) {
	setupCLI(t)
	t.Setenv("CREDENTIAL_STORE", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "credentials.db"))

	_, _, c, err := executeCLI(t, "whoami")
	require.EqualError(t, err, "not logged in")
	require.NotNil(t, c.app)

	_, err = c.app.repo.Get(context.Background(), "token_cli-test")
	require.Error(t, err)
	require.NotErrorIs(t, err, apperrors.ErrNotFound, "the database handle is closed")
}
