package domain

import (
	"fmt"
	"time"
)

// Role is the closed set of roles an identity can hold.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a raw string (e.g. a token claim or a stored column) into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User models a registered account. PasswordHash never leaves the process.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is what a bearer token asserts about its holder.
type Identity struct {
	Subject string
	Role    Role
}

// TokenClaims is the verified content of a bearer token.
type TokenClaims struct {
	ID        string
	Subject   string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (c *TokenClaims) Identity() Identity {
	return Identity{Subject: c.Subject, Role: c.Role}
}
