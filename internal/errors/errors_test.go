package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	apperrors "github.com/jrsteele09/go-admin-session/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestNewAPIError(t *testing.T) {
	t.Run("structured message", func(t *testing.T) {
		err := apperrors.NewAPIError(http.StatusConflict, "offer already closed", nil)
		require.Equal(t, "offer already closed", err.Error())
		require.Equal(t, http.StatusConflict, err.Status)
	})

	t.Run("status derived message", func(t *testing.T) {
		err := apperrors.NewAPIError(http.StatusInternalServerError, "", []byte("boom"))
		require.Equal(t, "error 500: Internal Server Error", err.Error())
		require.Equal(t, []byte("boom"), err.Body)
	})
}

func TestStatusOf(t *testing.T) {
	wrapped := fmt.Errorf("get services: %w", apperrors.NewAPIError(http.StatusNotFound, "", nil))
	require.Equal(t, http.StatusNotFound, apperrors.StatusOf(wrapped))
	require.Equal(t, 0, apperrors.StatusOf(apperrors.ErrTransport))
}

func TestWrapf(t *testing.T) {
	require.Nil(t, apperrors.Wrapf(nil, "ignored"))

	err := apperrors.Wrapf(apperrors.ErrSessionExpired, "request %s", "/services")
	require.EqualError(t, err, "request /services: session expired")
	require.True(t, apperrors.Is(err, apperrors.ErrSessionExpired))
}
