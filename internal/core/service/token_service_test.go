package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kpicentral/kpi-central/internal/core/domain"
)

type testClock struct{ now time.Time }

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 1, 5, 8, 30, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestTokenService_RoundTrip(t *testing.T) {
	clock := newTestClock()
	svc := NewTokenService("secret", time.Hour, WithTokenClock(clock.Now))

	identities := []domain.Identity{
		{ID: "u1", Email: "a@x.com", Role: domain.RoleEmployee},
		{ID: "64b7f0c2e1a4b5c6d7e8f901", Email: "boss@x.com", Role: domain.RoleAdmin, Department: "finance"},
		{ID: "ünï", Email: "unicode@x.com", Role: domain.RoleEmployee, Department: "R&D / Ops"},
	}

	for _, id := range identities {
		token, issued, err := svc.Issue(id)
		if err != nil {
			t.Fatalf("Issue(%v) returned error: %v", id, err)
		}
		if !issued.ExpiresAt.Equal(issued.IssuedAt.Add(time.Hour)) {
			t.Fatalf("expected expiry one hour after issue, got %v -> %v", issued.IssuedAt, issued.ExpiresAt)
		}

		got, err := svc.Verify(token)
		if err != nil {
			t.Fatalf("Verify returned error: %v", err)
		}
		if got.Identity != id {
			t.Fatalf("expected identity %+v, got %+v", id, got.Identity)
		}
		if got.TokenID != issued.TokenID || got.TokenID == "" {
			t.Fatalf("token id mismatch: issued %q, verified %q", issued.TokenID, got.TokenID)
		}
	}
}

func TestTokenService_ScenarioA(t *testing.T) {
	clock := newTestClock()
	svc := NewTokenService("secret", time.Hour, WithTokenClock(clock.Now))

	token, _, err := svc.Issue(domain.Identity{ID: "u1", Email: "a@x.com", Role: domain.RoleEmployee})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.Role != domain.RoleEmployee {
		t.Fatalf("expected role employee, got %s", claims.Role)
	}

	clock.Advance(2 * time.Hour)
	if _, err := svc.Verify(token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_ExpiresExactlyAtTTL(t *testing.T) {
	clock := newTestClock()
	svc := NewTokenService("secret", time.Hour, WithTokenClock(clock.Now))

	token, _, err := svc.Issue(domain.Identity{ID: "u1", Email: "a@x.com", Role: domain.RoleEmployee})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	clock.Advance(time.Hour - time.Second)
	if _, err := svc.Verify(token); err != nil {
		t.Fatalf("expected token valid just before expiry, got %v", err)
	}

	clock.Advance(2 * time.Second)
	if _, err := svc.Verify(token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired after expiry, got %v", err)
	}
}

func TestTokenService_IssueIsDeterministic(t *testing.T) {
	clock := newTestClock()
	a := NewTokenService("secret", time.Hour, WithTokenClock(clock.Now))
	b := NewTokenService("secret", time.Hour, WithTokenClock(clock.Now))
	id := domain.Identity{ID: "u1", Email: "a@x.com", Role: domain.RoleEmployee}

	ta, _, _ := a.Issue(id)
	tb, _, _ := b.Issue(id)
	if ta != tb {
		t.Fatalf("expected identical tokens for same key and clock")
	}
}

func TestTokenService_IssueRejectsInvalidIdentity(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	for _, id := range []domain.Identity{
		{Email: "a@x.com", Role: domain.RoleEmployee},
		{ID: "u1", Role: domain.RoleEmployee},
		{ID: "u1", Email: "a@x.com", Role: "superuser"},
	} {
		if _, _, err := svc.Issue(id); !errors.Is(err, domain.ErrInvalidIdentity) {
			t.Fatalf("Issue(%+v): expected ErrInvalidIdentity, got %v", id, err)
		}
	}
}

func TestTokenService_TamperedTokenRejected(t *testing.T) {
	svc := NewTokenService("secret", time.Hour, WithTokenClock(newTestClock().Now))
	token, _, err := svc.Issue(domain.Identity{ID: "u1", Email: "a@x.com", Role: domain.RoleAdmin, Department: "ops"})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	for i := range token {
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]

		claims, err := svc.Verify(tampered)
		if err == nil {
			t.Fatalf("tampered token at position %d verified as %+v", i, claims.Identity)
		}
		if claims.ID != "" {
			t.Fatalf("tampered token at position %d leaked identity %+v", i, claims.Identity)
		}
	}
}

func TestTokenService_VerifyFailureKinds(t *testing.T) {
	clock := newTestClock()
	svc := NewTokenService("secret", time.Hour, WithTokenClock(clock.Now))
	other := NewTokenService("other-secret", time.Hour, WithTokenClock(clock.Now))
	id := domain.Identity{ID: "u1", Email: "a@x.com", Role: domain.RoleEmployee}

	foreign, _, _ := other.Issue(id)
	valid, _, _ := svc.Issue(id)
	parts := strings.Split(valid, ".")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "u1", "email": "a@x.com", "role": "admin",
		"iat": clock.now.Unix(), "exp": clock.now.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1", "email": "a@x.com", "role": "employee", "iat": clock.now.Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token without exp: %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty", token: "", want: domain.ErrTokenMalformed},
		{name: "garbage", token: "not-a-token", want: domain.ErrTokenMalformed},
		{name: "two segments", token: parts[0] + "." + parts[1], want: domain.ErrTokenMalformed},
		{name: "wrong key", token: foreign, want: domain.ErrTokenInvalidSignature},
		{name: "alg none", token: none, want: domain.ErrTokenInvalidSignature},
		{name: "missing exp", token: noExpiry, want: domain.ErrTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestTokenService_DefaultTTL(t *testing.T) {
	if got := NewTokenService("secret", 0).TTL(); got != 24*time.Hour {
		t.Fatalf("expected default ttl of 24h, got %v", got)
	}
}
