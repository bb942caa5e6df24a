package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kpicentral/kpi-central/internal/api/response"
	"github.com/kpicentral/kpi-central/internal/core/domain"
	"github.com/kpicentral/kpi-central/internal/core/ports"
)

// UserHandler serves account administration routes.
type UserHandler struct {
	authService ports.AuthService
}

func NewUserHandler(authService ports.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// Create registers a new account. Admin only.
//
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "Account details"
// @Success      201   {object}  response.Success{data=domain.User}
// @Failure      400   {object}  response.Failure
// @Failure      403   {object}  response.Failure
// @Failure      409   {object}  response.Failure
// @Failure      422   {object}  response.Failure
// @Router       /api/users [post]
func (h *UserHandler) Create(c echo.Context, _ *domain.Identity) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       domain.Role(req.Role),
		Department: req.Department,
	})
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusCreated, "user created", user)
}

// List returns a page of accounts. Admin only.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        role        query     string  false  "admin or employee"
// @Param        department  query     string  false  "Department"
// @Param        page        query     int     false  "Page (1-based)"
// @Param        limit       query     int     false  "Page size (max 100)"
// @Success      200         {object}  response.Success{data=userListResponse}
// @Failure      403         {object}  response.Failure
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context, _ *domain.Identity) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	filter := ports.ListUsersFilter{
		Role:       c.QueryParam("role"),
		Department: c.QueryParam("department"),
		Page:       page,
		Limit:      limit,
	}
	users, total, err := h.authService.ListUsers(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	if users == nil {
		users = []*domain.User{}
	}

	if page < 1 {
		page = 1
	}
	return response.OK(c, http.StatusOK, "users retrieved", userListResponse{
		Items: users,
		Total: total,
		Page:  page,
	})
}

// Get returns one account. Employees may only read their own.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Success{data=domain.User}
// @Failure      403  {object}  response.Failure
// @Failure      404  {object}  response.Failure
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c echo.Context, id *domain.Identity) error {
	userID, err := pathID(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Profile(c.Request().Context(), id, userID)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "user retrieved", user)
}
