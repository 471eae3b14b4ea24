package pipeline

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-admin-session/authmodel"
)

// DefaultHeaderExempt lists endpoints that never receive an Authorization header.
var DefaultHeaderExempt = []string{
	authmodel.RouteLogin,
	authmodel.RouteRegister,
	authmodel.RouteRefresh,
}

// DefaultRecoveryExempt lists endpoints where a 401/403 means bad credentials or an
// ended session, never an expired access token.
var DefaultRecoveryExempt = []string{
	authmodel.RouteLogin,
	authmodel.RouteRegister,
	authmodel.RouteLogout,
	authmodel.RouteRefresh,
}

// matchesEndpoint reports whether path, ignoring any query string and API prefix, ends with one of endpoints.
func matchesEndpoint(path string, endpoints []string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")
	for _, endpoint := range endpoints {
		if strings.HasSuffix(path, strings.TrimRight(endpoint, "/")) {
			return true
		}
	}
	return false
}

func isSessionExpired(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}
