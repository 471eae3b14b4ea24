package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the admin session client
var (
	// Pipeline errors
	ErrTransport       = errors.New("network error or server unavailable")
	ErrSessionExpired  = errors.New("session expired")
	ErrRefreshRejected = errors.New("refresh token rejected")

	// Gateway errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")

	// Store errors
	ErrNotFound       = errors.New("not found")
	ErrInvalidKind    = errors.New("invalid credential kind")
	ErrUnknownBackend = errors.New("unknown credential store backend")
)

// APIError is a terminal error response from the backend (status >= 400, not a session expiry).
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError builds an APIError, falling back to a status derived message.
func NewAPIError(status int, message string, body []byte) *APIError {
	if message == "" {
		message = fmt.Sprintf("error %d: %s", status, http.StatusText(status))
	}
	return &APIError{Status: status, Message: message, Body: body}
}

// StatusOf returns the HTTP status carried by an APIError in err's chain, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join combines errors, see errors.Join
func Join(errs ...error) error {
	return errors.Join(errs...)
}
