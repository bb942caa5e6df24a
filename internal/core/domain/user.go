package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidUser        = errors.New("invalid user")
)

// User models an account that can sign in to KPI Central.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Department   string    `json:"department,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity projects the user onto the fields embedded in its tokens.
func (u *User) Identity() Identity {
	return Identity{
		ID:         u.ID,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
	}
}

// CanAccessUser reports whether id may read the profile of userID.
// Admins read everyone; employees only themselves.
func CanAccessUser(id *Identity, userID string) bool {
	if id == nil {
		return false
	}
	return id.Role == RoleAdmin || id.ID == userID
}
