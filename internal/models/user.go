// Package models contains the domain types shared between the HTTP layer,
// business services, and storage: users, identities, articles, and the closed
// role/status/category enumerations.
package models

import (
	"fmt"
	"time"
)

// Role is the closed set of user roles.
type Role string

const (
	// RoleAdmin may approve articles, see everything, and create other admins.
	RoleAdmin Role = "admin"
	// RoleEditor is the default role: submits articles that start as pending.
	RoleEditor Role = "editor"
)

// ParseRole validates a raw role value at the boundary.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleEditor:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User represents a registered account as stored in the credential store.
type User struct {
	ID           string    // UUID of the user
	Username     string    // Unique login name
	Email        string    // Unique e-mail address
	PasswordHash string    // bcrypt hash, never the plaintext
	Role         Role      // admin or editor
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the view of a user returned to clients; it never carries the
// password hash.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// Public strips the credential fields from a user.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

// Identity is the authenticated actor resolved from a request token.
// A nil *Identity means anonymous.
type Identity struct {
	ID       string
	Username string
	Email    string
	Role     Role
}

// IsAdmin reports whether the identity holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
