package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kpicentral/kpi-central/internal/core/domain"
)

var (
	errMissingToken         = errors.New("missing authorization header")
	errInvalidAuthorization = errors.New("invalid authorization header")
)

// bearerToken extracts the credential from "Authorization: Bearer <token>".
func bearerToken(req *http.Request) (string, error) {
	authHeader := req.Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", errMissingToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errInvalidAuthorization
	}
	return strings.TrimSpace(parts[1]), nil
}

// verifyFailureKind names a verification error for logs and metrics. The
// kind is never sent to the caller.
func verifyFailureKind(err error) string {
	switch {
	case errors.Is(err, errMissingToken):
		return "missing"
	case errors.Is(err, errInvalidAuthorization):
		return "bad_header"
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenInvalidSignature):
		return "invalid_signature"
	}
	return "malformed"
}
