package ports

import "github.com/kpicentral/kpi-central/internal/core/domain"

// TokenService issues and verifies identity tokens. Verify reports failures
// as domain.ErrTokenMalformed, domain.ErrTokenInvalidSignature or
// domain.ErrTokenExpired.
type TokenService interface {
	Issue(identity domain.Identity) (string, domain.TokenClaims, error)
	Verify(token string) (domain.TokenClaims, error)
}
