package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/kpicentral/kpi-central/docs"
	"github.com/kpicentral/kpi-central/internal/api/handler"
	"github.com/kpicentral/kpi-central/internal/api/middleware"
	"github.com/kpicentral/kpi-central/internal/core/domain"
	"github.com/kpicentral/kpi-central/internal/core/ports"
	"github.com/kpicentral/kpi-central/internal/infrastructure/http/handlers"
)

// RateLimits holds the three presets routes are declared with.
type RateLimits struct {
	Default domain.RateLimitConfig
	Auth    domain.RateLimitConfig
	Strict  domain.RateLimitConfig
}

// Dependencies is everything NewRouter wires into routes.
type Dependencies struct {
	Auth     ports.AuthService
	KPIs     ports.KPIService
	Audit    handler.AuditReader
	Security *middleware.Security
	Limits   RateLimits
	// Checks are the readiness probes, keyed by dependency name.
	Checks map[string]handlers.Check
	Logger zerolog.Logger
	// Registerer receives the HTTP metrics. Nil means the default registry.
	Registerer prometheus.Registerer
	// Gatherer backs /metrics. Nil means the default registry.
	Gatherer prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = echo.ExtractIPFromXFFHeader()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "kpi_central",
		Subsystem:  "http",
		Registerer: deps.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	sec := deps.Security
	authed := func(action string, limit domain.RateLimitConfig) middleware.Options {
		return middleware.Options{RequireAuth: true, RateLimit: limit, Action: action}
	}
	admin := func(action string, limit domain.RateLimitConfig) middleware.Options {
		return middleware.Options{RequireAuth: true, RequireRole: domain.RoleAdmin, RateLimit: limit, Action: action}
	}

	api := e.Group("/api")

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	api.POST("/auth/login", sec.Wrap(authHandler.Login, middleware.Options{RateLimit: deps.Limits.Auth, Action: "auth.login"}))
	api.POST("/auth/refresh", sec.Wrap(authHandler.Refresh, authed("auth.refresh", deps.Limits.Auth)))
	api.POST("/auth/logout", sec.Wrap(authHandler.Logout, authed("auth.logout", deps.Limits.Auth)))
	api.GET("/auth/me", sec.Wrap(authHandler.Me, authed("auth.me", deps.Limits.Default)))

	// --- Users ---
	userHandler := handler.NewUserHandler(deps.Auth)
	api.POST("/users", sec.Wrap(userHandler.Create, admin("user.create", deps.Limits.Default)))
	api.GET("/users", sec.Wrap(userHandler.List, admin("user.list", deps.Limits.Default)))
	api.GET("/users/:id", sec.Wrap(userHandler.Get, authed("user.get", deps.Limits.Default)))

	// --- KPIs ---
	kpiHandler := handler.NewKPIHandler(deps.KPIs)
	api.GET("/kpis", sec.Wrap(kpiHandler.List, authed("kpi.list", deps.Limits.Default)))
	api.POST("/kpis", sec.Wrap(kpiHandler.Create, admin("kpi.create", deps.Limits.Default)))
	api.GET("/kpis/:id", sec.Wrap(kpiHandler.Get, authed("kpi.get", deps.Limits.Default)))
	api.PATCH("/kpis/:id/progress", sec.Wrap(kpiHandler.RecordProgress, authed("kpi.progress", deps.Limits.Default)))
	api.POST("/kpis/:id/submit", sec.Wrap(kpiHandler.Submit, authed("kpi.submit", deps.Limits.Default)))
	api.POST("/kpis/:id/review", sec.Wrap(kpiHandler.Review, admin("kpi.review", deps.Limits.Default)))
	api.DELETE("/kpis/:id", sec.Wrap(kpiHandler.Delete, admin("kpi.delete", deps.Limits.Default)))
	api.GET("/dashboard/summary", sec.Wrap(kpiHandler.Summary, authed("dashboard.summary", deps.Limits.Default)))

	// --- System ---
	auditHandler := handler.NewAuditHandler(deps.Audit)
	api.GET("/system/audit", sec.Wrap(auditHandler.List, admin("system.audit", deps.Limits.Strict)))

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
