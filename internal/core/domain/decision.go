package domain

import (
	"net/http"
	"time"
)

// FailureReason classifies why a request was rejected by the security pipeline.
type FailureReason string

const (
	ReasonNone               FailureReason = ""
	ReasonUnauthenticated    FailureReason = "unauthenticated"
	ReasonExpired            FailureReason = "expired"
	ReasonForbiddenRole      FailureReason = "forbidden-role"
	ReasonForbiddenOwnership FailureReason = "forbidden-ownership"
	ReasonRateLimited        FailureReason = "rate-limited"
)

// HTTPStatus maps the reason to the status code of its error response.
func (r FailureReason) HTTPStatus() int {
	switch r {
	case ReasonUnauthenticated, ReasonExpired:
		return http.StatusUnauthorized
	case ReasonForbiddenRole, ReasonForbiddenOwnership:
		return http.StatusForbidden
	case ReasonRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusOK
}

// Message is the caller-facing text for the reason. Expired and invalid
// tokens share one message.
func (r FailureReason) Message() string {
	switch r {
	case ReasonUnauthenticated, ReasonExpired:
		return "authentication required"
	case ReasonForbiddenRole:
		return "insufficient role"
	case ReasonForbiddenOwnership:
		return "access forbidden"
	case ReasonRateLimited:
		return "rate limit exceeded"
	}
	return ""
}

// Decision is the outcome of evaluating one request.
type Decision struct {
	Allowed  bool
	Identity *Identity
	Reason   FailureReason
}

// Allow builds a positive decision.
func Allow(id *Identity) Decision {
	return Decision{Allowed: true, Identity: id}
}

// Deny builds a negative decision.
func Deny(reason FailureReason) Decision {
	return Decision{Reason: reason}
}

// AccessRecord is the audit entry emitted for every request attempt.
type AccessRecord struct {
	Timestamp  time.Time     `json:"timestamp" bson:"timestamp"`
	Method     string        `json:"method" bson:"method"`
	Path       string        `json:"path" bson:"path"`
	Action     string        `json:"action" bson:"action"`
	IdentityID string        `json:"identity_id,omitempty" bson:"identity_id,omitempty"`
	Role       Role          `json:"role,omitempty" bson:"role,omitempty"`
	RemoteAddr string        `json:"remote_addr" bson:"remote_addr"`
	RequestID  string        `json:"request_id,omitempty" bson:"request_id,omitempty"`
	Outcome    FailureReason `json:"outcome,omitempty" bson:"outcome,omitempty"`
}
