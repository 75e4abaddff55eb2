package domain

// TokenPair is the credential set handed to a client after login, registration or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Actor is the authenticated identity issuing a request.
type Actor struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the actor holds the ADMIN role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
