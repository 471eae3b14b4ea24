// Package testbackend is an in-process fake of the admin REST backend used by tests.
package testbackend

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-admin-session/authmodel"
)

const APIPrefix = "/api/v1"

// Recorded is one request as the backend received it.
type Recorded struct {
	Method        string
	Path          string
	Authorization string
	Body          []byte
}

// Backend serves the auth routes plus a few protected resources.
type Backend struct {
	server *httptest.Server

	mu            sync.Mutex
	accessToken   string
	refreshToken  string
	nextAccess    string
	nextRefresh   string
	rejectStatus  int
	stickyExpiry  bool
	refreshGate   chan struct{}
	email         string
	password      string
	user          authmodel.User
	requests      []Recorded
	refreshCalls  atomic.Int32
	logoutCalls   atomic.Int32
	refreshHeader bool
}

// New starts a backend that is shut down with the test.
func New(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		email:    "admin@example.com",
		password: "s3cret",
		user:     authmodel.User{ID: 1, Email: "admin@example.com", GivenName: "Ada", FamilyName: "Lovelace"},
	}

	r := chi.NewRouter()
	r.Use(b.record)
	r.Route(APIPrefix, func(r chi.Router) {
		r.Post(authmodel.RouteLogin, b.login)
		r.Post(authmodel.RouteLogout, b.logout)
		r.Post(authmodel.RouteRefresh, b.refresh)
		r.Group(func(r chi.Router) {
			r.Use(b.requireAuth)
			r.Get(authmodel.RouteMe, b.me)
			r.Get("/job-offers", b.list("job-offer"))
			r.Get("/services", b.list("service"))
			r.Post("/services", b.echo)
			r.Patch("/job-offers/{id}/close", b.echo)
			r.Get("/broken", b.broken)
			r.Get("/conflict", b.conflict)
		})
	})

	b.server = httptest.NewServer(r)
	t.Cleanup(b.server.Close)
	return b
}

// BaseURL is the API root including the version prefix.
func (b *Backend) BaseURL() string {
	return b.server.URL + APIPrefix
}

// Close stops the server early, e.g. to provoke transport errors.
func (b *Backend) Close() {
	b.server.Close()
}

// IssueTokens makes access/refresh the currently valid pair.
func (b *Backend) IssueTokens(access, refresh string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accessToken = access
	b.refreshToken = refresh
}

// SetNextTokens sets the pair returned by the next successful refresh or login.
func (b *Backend) SetNextTokens(access, refresh string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextAccess = access
	b.nextRefresh = refresh
}

// ExpireAccess invalidates the current access token, as if it timed out.
func (b *Backend) ExpireAccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accessToken = ""
}

// RejectRefresh makes /auth/refresh answer with status.
func (b *Backend) RejectRefresh(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectStatus = status
}

// StickyExpiry makes protected routes reject every token, even freshly refreshed ones.
func (b *Backend) StickyExpiry() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stickyExpiry = true
}

// TokensInHeaders makes refresh replies carry the new pair in headers rather than the body.
func (b *Backend) TokensInHeaders() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshHeader = true
}

// HoldRefresh blocks refresh calls until the returned release func is called.
func (b *Backend) HoldRefresh() (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.refreshGate = gate
	b.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (b *Backend) RefreshCalls() int {
	return int(b.refreshCalls.Load())
}

func (b *Backend) LogoutCalls() int {
	return int(b.logoutCalls.Load())
}

// Requests returns the recorded requests for path (relative to the API prefix).
func (b *Backend) Requests(path string) []Recorded {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Recorded
	for _, r := range b.requests {
		if r.Path == APIPrefix+path {
			out = append(out, r)
		}
	}
	return out
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		b.mu.Lock()
		b.requests = append(b.requests, Recorded{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			Body:          body,
		})
		b.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		valid := !b.stickyExpiry && b.accessToken != "" && r.Header.Get("Authorization") == "Bearer "+b.accessToken
		b.mu.Unlock()

		if !valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token expired"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var creds authmodel.LoginCredentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed body"})
		return
	}
	if creds.Email != b.email || creds.Password != b.password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}

	b.mu.Lock()
	b.accessToken, b.refreshToken = b.nextAccess, b.nextRefresh
	resp := tokenBody(b.accessToken, b.refreshToken)
	resp["user"] = b.user
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) logout(w http.ResponseWriter, _ *http.Request) {
	b.logoutCalls.Add(1)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) refresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)

	b.mu.Lock()
	gate := b.refreshGate
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	var body authmodel.RefreshRequest
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rejectStatus != 0 {
		writeJSON(w, b.rejectStatus, map[string]string{"message": "Refresh token expired"})
		return
	}
	if body.RefreshToken == "" || body.RefreshToken != b.refreshToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid refresh token"})
		return
	}

	b.accessToken, b.refreshToken = b.nextAccess, b.nextRefresh
	if b.refreshHeader {
		w.Header().Set("Authorization", "Bearer "+b.accessToken)
		w.Header().Set("RefreshToken", b.refreshToken)
		writeJSON(w, http.StatusOK, map[string]any{"access_token": b.accessToken})
		return
	}
	writeJSON(w, http.StatusOK, tokenBody(b.accessToken, b.refreshToken))
}

func (b *Backend) me(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, b.user)
}

func (b *Backend) list(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "kind": kind}})
	}
}

func (b *Backend) echo(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if len(body) == 0 {
		body = []byte(`{}`)
	}
	_, _ = w.Write(body)
}

func (b *Backend) broken(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "upstream exploded", http.StatusInternalServerError)
}

func (b *Backend) conflict(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusConflict, map[string]string{"message": "Offer already closed"})
}

func tokenBody(access, refresh string) map[string]any {
	return map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "Bearer",
		"expires_in":    900,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

