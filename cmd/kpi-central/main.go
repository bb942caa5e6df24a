// Command kpi-central serves the KPI Central HTTP API.
//
// @title                       KPI Central API
// @version                     1.0
// @description                 KPI definition, tracking and review behind a bearer-token security pipeline.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kpicentral/kpi-central/internal/api"
	"github.com/kpicentral/kpi-central/internal/api/middleware"
	"github.com/kpicentral/kpi-central/internal/core/ports"
	"github.com/kpicentral/kpi-central/internal/core/service"
	mongorepo "github.com/kpicentral/kpi-central/internal/infrastructure/db/mongo"
	redisstore "github.com/kpicentral/kpi-central/internal/infrastructure/db/redis"
	"github.com/kpicentral/kpi-central/internal/infrastructure/http/handlers"
	"github.com/kpicentral/kpi-central/internal/infrastructure/memory"
	"github.com/kpicentral/kpi-central/internal/infrastructure/queue"
	"github.com/kpicentral/kpi-central/internal/pkg/config"
	"github.com/kpicentral/kpi-central/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "kpi-central",
		Env:     cfg.Env,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoClient, db, err := mongorepo.Connect(ctx, mongorepo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()

	users := mongorepo.NewUserRepository(db)
	kpis := mongorepo.NewKPIRepository(db)
	accessLogs := mongorepo.NewAccessLogRepository(db)
	if err := mongorepo.EnsureIndexes(ctx, users, kpis, accessLogs); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	checks := map[string]handlers.Check{"mongodb": handlers.MongoCheck(db)}

	store, closeStore, err := rateLimitStore(ctx, cfg, checks, log)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	limiter := service.NewRateLimiter(store, nil, log.With().Str("component", "ratelimit").Logger())
	authService := service.NewAuthService(users, tokens, log.With().Str("component", "auth").Logger())
	kpiService := service.NewKPIService(kpis, users, nil, log.With().Str("component", "kpi").Logger())
	auditService := service.NewAuditService(accessLogs)

	if err := authService.EnsureAdmin(ctx, cfg.Bootstrap.AdminName, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		return err
	}

	// The dispatcher outlives the HTTP server so records of in-flight
	// requests are still written during shutdown.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, accessLogs, log.With().Str("component", "audit").Logger())
	dispatcher.Start(dispatchCtx)
	defer func() {
		stopDispatch()
		dispatcher.Wait()
	}()

	security := middleware.NewSecurity(tokens, limiter, dispatcher, log.With().Str("component", "security").Logger())
	def, auth, strict := cfg.RateLimit.Presets()

	e := api.NewRouter(api.Dependencies{
		Auth:     authService,
		KPIs:     kpiService,
		Audit:    auditService,
		Security: security,
		Limits:   api.RateLimits{Default: def, Auth: auth, Strict: strict},
		Checks:   checks,
		Logger:   log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("rate_limit_backend", cfg.RateLimit.Backend).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// rateLimitStore selects the counter store. Redis, when configured, is also
// registered as a readiness dependency.
func rateLimitStore(ctx context.Context, cfg *config.Config, checks map[string]handlers.Check, log zerolog.Logger) (ports.RateLimitStore, func(), error) {
	closeStore := func() {}

	var rdb *goredis.Client
	if cfg.Redis.Addr != "" {
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		rdb = client
		checks["redis"] = handlers.RedisCheck(client)
		closeStore = func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close failed")
			}
		}
	}

	if cfg.RateLimit.Backend == config.BackendRedis {
		return redisstore.NewRateLimitStore(rdb), closeStore, nil
	}

	mem := memory.NewRateLimitStore()
	mem.StartSweeper(ctx, sweepInterval)
	return mem, closeStore, nil
}
