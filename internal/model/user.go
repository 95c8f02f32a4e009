// Package model defines the data structures used throughout the application.
//
// Accounts live in three separate auth domains: users seeking support,
// creators offering it and admins. Each has its own table/collection and
// its own email uniqueness constraint, mirroring how they register and log in.
package model

import (
	"fmt"
	"time"
)

// Role identifies which auth domain a principal belongs to.
type Role string

const (
	RoleUser    Role = "user"
	RoleCreator Role = "creator"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleCreator, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Principal is the authenticated identity attached to a request.
// Services trust it for ownership checks.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Is reports whether the principal is the given account in the given domain.
func (p Principal) Is(role Role, id string) bool {
	return p.Role == role && p.ID == id && id != ""
}

// IsAdmin reports whether the principal is an admin.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// User is a person seeking emotional support.
//
// The password hash never leaves the server: json:"-" keeps it out of every response.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Admin is a platform operator.
type Admin struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Contact is the minimal identity of the other side of a meeting.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
