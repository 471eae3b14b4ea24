package authmodel

// User is the identity returned by /auth/me and embedded in login responses.
// Field names follow the backend's UserResponse.
type User struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	GivenName  string `json:"prenom"`
	FamilyName string `json:"nom"`
}

// DisplayName returns "Given Family", or the email when no name is known.
func (u User) DisplayName() string {
	switch {
	case u.GivenName != "" && u.FamilyName != "":
		return u.GivenName + " " + u.FamilyName
	case u.GivenName != "":
		return u.GivenName
	case u.FamilyName != "":
		return u.FamilyName
	default:
		return u.Email
	}
}
