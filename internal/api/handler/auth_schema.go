package handler

import (
	"time"

	"github.com/kpicentral/kpi-central/internal/core/domain"
)

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type createUserRequest struct {
	Name       string `json:"name"       validate:"required,max=120"`
	Email      string `json:"email"      validate:"required,email"`
	Password   string `json:"password"   validate:"required,min=8"`
	Role       string `json:"role"       validate:"required,oneof=admin employee"`
	Department string `json:"department" validate:"max=80"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

type userListResponse struct {
	Items []*domain.User `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
}
