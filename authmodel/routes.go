package authmodel

// Auth route constants, relative to the API base URL.
const (
	RouteLogin    = "/auth/login"
	RouteRegister = "/auth/register"
	RouteLogout   = "/auth/logout"
	RouteRefresh  = "/auth/refresh"
	RouteMe       = "/auth/me"
)
