package domain

import (
	"errors"
	"time"
)

// User is the core user entity. PasswordHash is never returned to API callers.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role is the authorization level embedded in access tokens at issuance.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleAgent     Role = "AGENT"
	RoleRequester Role = "REQUESTER"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleRequester:
		return true
	}
	return false
}

// Validate validates the user for persistence. Returns an error describing the
// first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Role == "" {
		u.Role = RoleRequester
	}
	if !u.Role.Valid() {
		return errors.New("unknown role")
	}
	return nil
}
