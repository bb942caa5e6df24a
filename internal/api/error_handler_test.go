package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kpicentral/kpi-central/internal/api/handler"
	"github.com/kpicentral/kpi-central/internal/api/response"
	"github.com/kpicentral/kpi-central/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{name: "echo error", err: echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), code: http.StatusBadRequest, message: "invalid payload"},
		{name: "validation", err: fmt.Errorf("%w: title is required", handler.ErrValidation), code: http.StatusUnprocessableEntity, message: "validation failed: title is required"},
		{name: "transition", err: fmt.Errorf("%w (from approved to submitted)", domain.ErrInvalidTransition), code: http.StatusUnprocessableEntity, message: "invalid status transition (from approved to submitted)"},
		{name: "invalid user", err: fmt.Errorf("%w: unknown role %q", domain.ErrInvalidUser, "root"), code: http.StatusUnprocessableEntity, message: `invalid user: unknown role "root"`},
		{name: "kpi not found", err: fmt.Errorf("update kpi x: %w", domain.ErrKPINotFound), code: http.StatusNotFound, message: "kpi not found"},
		{name: "user not found", err: domain.ErrUserNotFound, code: http.StatusNotFound, message: "user not found"},
		{name: "forbidden", err: domain.ErrForbidden, code: http.StatusForbidden, message: "access forbidden"},
		{name: "credentials", err: domain.ErrInvalidCredentials, code: http.StatusUnauthorized, message: "invalid credentials"},
		{name: "conflict", err: domain.ErrUserExists, code: http.StatusConflict, message: "user already exists"},
		{name: "unexpected", err: errors.New("mongo: socket closed"), code: http.StatusInternalServerError, message: "internal server error"},
	}

	errorHandler := NewHTTPErrorHandler(zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			errorHandler(tt.err, e.NewContext(req, rec))

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var body response.Failure
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Success || body.Error != tt.message {
				t.Fatalf("unexpected envelope: %+v", body)
			}
		})
	}
}
