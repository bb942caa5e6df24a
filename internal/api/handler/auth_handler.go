package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kpicentral/kpi-central/internal/api/response"
	"github.com/kpicentral/kpi-central/internal/core/domain"
	"github.com/kpicentral/kpi-central/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  response.Success{data=sessionResponse}
// @Failure      400   {object}  response.Failure
// @Failure      401   {object}  response.Failure
// @Failure      422   {object}  response.Failure
// @Failure      429   {object}  response.Failure
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context, _ *domain.Identity) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "login successful", toSessionResponse(session))
}

// Refresh exchanges a valid token for a fresh one.
//
// @Summary      Refresh token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Success{data=sessionResponse}
// @Failure      401  {object}  response.Failure
// @Failure      429  {object}  response.Failure
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context, id *domain.Identity) error {
	session, err := h.authService.Refresh(c.Request().Context(), *id)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "token refreshed", toSessionResponse(session))
}

// Logout acknowledges the end of a session. Tokens are stateless and stay
// valid until they expire; clients discard them.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Success
// @Failure      401  {object}  response.Failure
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context, _ *domain.Identity) error {
	return response.OK(c, http.StatusOK, "logged out", nil)
}

// Me returns the caller's own account.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Success{data=domain.User}
// @Failure      401  {object}  response.Failure
// @Failure      404  {object}  response.Failure
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context, id *domain.Identity) error {
	user, err := h.authService.Profile(c.Request().Context(), id, id.ID)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "profile retrieved", user)
}

func toSessionResponse(s *ports.Session) sessionResponse {
	return sessionResponse{
		Token:     s.Token,
		TokenType: "Bearer",
		ExpiresAt: s.Claims.ExpiresAt,
		User:      s.User,
	}
}
