package authmodel

// LoginCredentials is the body posted to /auth/login.
type LoginCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body posted to /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
