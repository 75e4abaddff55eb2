package domain

import "time"

// Role grants capabilities to an authenticated user.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is a recognized role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is an identity that can create, own or work tickets. Role is fixed at registration.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	RefreshToken *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Ref returns the public projection embedded in ticket payloads.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserRef is the minimal user projection attached to tickets and assignments.
type UserRef struct {
	ID    string
	Name  string
	Email string
}
