package domain

import (
	"errors"
	"time"
)

// Role is the coarse permission level carried by every identity.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

var (
	ErrInvalidIdentity       = errors.New("identity requires id, email and a known role")
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenInvalidSignature = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token has expired")
)

// Identity is the authenticated caller threaded through every handler.
type Identity struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	Department string `json:"department,omitempty"`
}

// Validate checks the fields required to issue a token.
func (i Identity) Validate() error {
	if i.ID == "" || i.Email == "" || !i.Role.Valid() {
		return ErrInvalidIdentity
	}
	return nil
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// TokenClaims is a verified (or freshly issued) token payload.
type TokenClaims struct {
	Identity
	TokenID   string    `json:"jti"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}
