package ports

import (
	"context"

	"github.com/kpicentral/kpi-central/internal/core/domain"
)

// ListUsersFilter carries the optional filters of the user listing.
type ListUsersFilter struct {
	Role       string
	Department string
	Page       int
	Limit      int
}

// UserRepository defines the interface for account persistence.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
}
