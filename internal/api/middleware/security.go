package middleware

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kpicentral/kpi-central/internal/api/metrics"
	"github.com/kpicentral/kpi-central/internal/api/response"
	"github.com/kpicentral/kpi-central/internal/core/domain"
	"github.com/kpicentral/kpi-central/internal/core/ports"
)

const (
	headerRateLimitLimit     = "X-RateLimit-Limit"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitReset     = "X-RateLimit-Reset"
	headerRetryAfter         = "Retry-After"
)

// IdentityHandler is a route handler that receives the caller identity
// resolved by Security. The identity is nil on routes that do not require
// authentication.
type IdentityHandler func(c echo.Context, id *domain.Identity) error

// Options configures one wrapped route.
type Options struct {
	RequireAuth bool
	// RequireRole is only enforced when RequireAuth is set.
	RequireRole domain.Role
	// RateLimit is skipped when its Name is empty.
	RateLimit domain.RateLimitConfig
	// Action labels the route in access records and metrics.
	Action string
}

// Attempt is what the pipeline learned about a request before deciding.
type Attempt struct {
	Claims      *domain.TokenClaims
	TokenErr    error
	RateLimited bool
}

// Authorize decides a request from its attempt. Rate limiting is evaluated
// first, then authentication, then the role.
func Authorize(a Attempt, opts Options) domain.Decision {
	if a.RateLimited {
		return domain.Deny(domain.ReasonRateLimited)
	}
	if !opts.RequireAuth {
		return domain.Allow(nil)
	}

	if a.Claims == nil || a.TokenErr != nil {
		if errors.Is(a.TokenErr, domain.ErrTokenExpired) {
			return domain.Deny(domain.ReasonExpired)
		}
		return domain.Deny(domain.ReasonUnauthenticated)
	}

	id := a.Claims.Identity
	if !roleAllowed(&id, opts.RequireRole) {
		d := domain.Deny(domain.ReasonForbiddenRole)
		d.Identity = &id
		return d
	}
	return domain.Allow(&id)
}

// Security is the request-authorization pipeline shared by every API route.
type Security struct {
	tokens  ports.TokenService
	limiter ports.RateLimiter
	access  ports.AccessLogger
	log     zerolog.Logger
	now     func() time.Time
}

// NewSecurity builds the pipeline. access may be nil.
func NewSecurity(tokens ports.TokenService, limiter ports.RateLimiter, access ports.AccessLogger, log zerolog.Logger) *Security {
	return &Security{
		tokens:  tokens,
		limiter: limiter,
		access:  access,
		log:     log,
		now:     time.Now,
	}
}

// Wrap returns an echo handler that runs the pipeline before h. Rejected
// requests get the failure envelope and h is never called.
func (s *Security) Wrap(h IdentityHandler, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		var attempt Attempt
		claims, tokenErr := s.resolve(c)
		attempt.Claims, attempt.TokenErr = claims, tokenErr

		rateKey := "ip:" + c.RealIP()
		if claims != nil {
			rateKey = "user:" + claims.ID
		}

		var window *domain.RateLimitWindow
		if opts.RateLimit.Name != "" {
			w, allowed, err := s.limiter.Check(c.Request().Context(), rateKey, opts.RateLimit)
			switch {
			case err != nil:
				metrics.RateLimitChecksTotal.WithLabelValues(opts.RateLimit.Name, "error").Inc()
				s.log.Warn().Err(err).Str("preset", opts.RateLimit.Name).Msg("rate limit store unavailable, allowing request")
			case !allowed:
				metrics.RateLimitChecksTotal.WithLabelValues(opts.RateLimit.Name, "rejected").Inc()
				attempt.RateLimited = true
				window = &w
			default:
				metrics.RateLimitChecksTotal.WithLabelValues(opts.RateLimit.Name, "allowed").Inc()
				window = &w
			}
		}

		if !attempt.RateLimited && tokenErr != nil && !errors.Is(tokenErr, errMissingToken) {
			metrics.TokenRejectionsTotal.WithLabelValues(verifyFailureKind(tokenErr)).Inc()
		}

		decision := Authorize(attempt, opts)
		s.record(c, opts, claims, decision)

		if window != nil {
			s.setRateLimitHeaders(c, opts.RateLimit, *window, !decision.Allowed && decision.Reason == domain.ReasonRateLimited)
		}

		if !decision.Allowed {
			if opts.RequireAuth && tokenErr != nil && decision.Reason != domain.ReasonRateLimited {
				s.log.Debug().
					Str("kind", verifyFailureKind(tokenErr)).
					Str("action", opts.Action).
					Msg("bearer token rejected")
			}
			return response.Fail(c, decision.Reason.HTTPStatus(), decision.Reason.Message(), nil)
		}

		if !opts.RequireAuth {
			return h(c, nil)
		}
		return h(c, decision.Identity)
	}
}

// resolve verifies the bearer token if one was presented. The claims only
// key the rate limiter at this point; rejections are counted once the
// limiter has let the request through, and Authorize decides.
func (s *Security) resolve(c echo.Context) (*domain.TokenClaims, error) {
	raw, err := bearerToken(c.Request())
	if err != nil {
		return nil, err
	}

	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	return &claims, nil
}

func (s *Security) record(c echo.Context, opts Options, claims *domain.TokenClaims, d domain.Decision) {
	req := c.Request()
	rec := domain.AccessRecord{
		Timestamp:  s.now().UTC(),
		Method:     req.Method,
		Path:       req.URL.Path,
		Action:     opts.Action,
		RemoteAddr: c.RealIP(),
		RequestID:  c.Response().Header().Get(echo.HeaderXRequestID),
		Outcome:    d.Reason,
	}
	if claims != nil {
		rec.IdentityID = claims.ID
		rec.Role = claims.Role
	}

	outcome := "allowed"
	if !d.Allowed {
		outcome = string(d.Reason)
	}
	metrics.SecurityDecisionsTotal.WithLabelValues(opts.Action, outcome).Inc()

	event := s.log.Info()
	if !d.Allowed {
		event = s.log.Warn()
	}
	event.
		Str("method", rec.Method).
		Str("path", rec.Path).
		Str("action", rec.Action).
		Str("identity_id", rec.IdentityID).
		Str("remote_addr", rec.RemoteAddr).
		Str("outcome", outcome).
		Msg("access attempt")

	if s.access != nil {
		s.access.Record(rec)
	}
}

func (s *Security) setRateLimitHeaders(c echo.Context, cfg domain.RateLimitConfig, w domain.RateLimitWindow, limited bool) {
	header := c.Response().Header()
	remaining := cfg.MaxRequests - w.Count
	if remaining < 0 {
		remaining = 0
	}
	reset := w.ResetAt(cfg.Window)
	header.Set(headerRateLimitLimit, strconv.Itoa(cfg.MaxRequests))
	header.Set(headerRateLimitRemaining, strconv.Itoa(remaining))
	header.Set(headerRateLimitReset, strconv.FormatInt(reset.Unix(), 10))

	if limited {
		wait := int(math.Ceil(reset.Sub(s.now()).Seconds()))
		if wait < 1 {
			wait = 1
		}
		header.Set(headerRetryAfter, strconv.Itoa(wait))
	}
}

