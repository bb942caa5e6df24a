package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kpicentral/kpi-central/internal/core/domain"
)

// tokenNamespace seeds the name-based token ids so that Issue stays
// deterministic for a fixed key and clock.
var tokenNamespace = uuid.MustParse("5b7f4a8e-2f55-4c55-9f0e-6b4f2c1d9a30")

// Clock returns the current time. Tests substitute a fixed or advancing clock.
type Clock func() time.Time

// tokenClaims is the JWT payload: sub, email, role, department, iat, exp, jti.
type tokenClaims struct {
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	Department string      `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 identity tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    Clock
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithTokenClock overrides the time source used for iat/exp and validation.
func WithTokenClock(now Clock) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) *TokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the validity duration of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for identity valid from now until now+TTL.
func (s *TokenService) Issue(identity domain.Identity) (string, domain.TokenClaims, error) {
	if err := identity.Validate(); err != nil {
		return "", domain.TokenClaims{}, err
	}

	issuedAt := s.now().UTC().Truncate(jwt.TimePrecision)
	expiresAt := issuedAt.Add(s.ttl)
	tokenID := uuid.NewSHA1(tokenNamespace, []byte(identity.ID+"|"+strconv.FormatInt(issuedAt.UnixNano(), 10))).String()

	claims := tokenClaims{
		Email:      identity.Email,
		Role:       identity.Role,
		Department: identity.Department,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", domain.TokenClaims{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, domain.TokenClaims{
		Identity:  identity,
		TokenID:   tokenID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify parses token and checks its signature and expiry.
func (s *TokenService) Verify(token string) (domain.TokenClaims, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return domain.TokenClaims{}, classifyTokenError(err)
	}
	if !parsed.Valid || claims.IssuedAt == nil {
		return domain.TokenClaims{}, domain.ErrTokenMalformed
	}

	identity := domain.Identity{
		ID:         claims.Subject,
		Email:      claims.Email,
		Role:       claims.Role,
		Department: claims.Department,
	}
	if err := identity.Validate(); err != nil {
		return domain.TokenClaims{}, fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	}

	return domain.TokenClaims{
		Identity:  identity,
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}

// classifyTokenError folds the jwt error tree into the three verify failures.
// Signature problems win over expiry because jwt checks the signature first.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", domain.ErrTokenInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", domain.ErrTokenExpired, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
}
