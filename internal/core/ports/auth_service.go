package ports

import (
	"context"

	"github.com/kpicentral/kpi-central/internal/core/domain"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Role       domain.Role
	Department string
}

// Session is the result of a successful login or refresh.
type Session struct {
	Token  string
	Claims domain.TokenClaims
	User   *domain.User
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, identity domain.Identity) (*Session, error)
	Profile(ctx context.Context, caller *domain.Identity, userID string) (*domain.User, error)
	ListUsers(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
}
