package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/kpicentral/kpi-central/internal/core/domain"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Auth      AuthConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Bootstrap BootstrapConfig
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=24h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=kpi_central"`
}

// RedisConfig is optional. An empty Addr disables Redis entirely.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type RateLimitConfig struct {
	Backend string `env:"RATE_LIMIT_BACKEND, default=memory"`

	DefaultMax    int           `env:"RATE_LIMIT_DEFAULT_MAX,    default=100"`
	DefaultWindow time.Duration `env:"RATE_LIMIT_DEFAULT_WINDOW, default=1m"`
	AuthMax       int           `env:"RATE_LIMIT_AUTH_MAX,       default=10"`
	AuthWindow    time.Duration `env:"RATE_LIMIT_AUTH_WINDOW,    default=15m"`
	StrictMax     int           `env:"RATE_LIMIT_STRICT_MAX,     default=20"`
	StrictWindow  time.Duration `env:"RATE_LIMIT_STRICT_WINDOW,  default=1m"`
}

// Presets returns the three named limits consumed by route definitions.
func (c RateLimitConfig) Presets() (def, auth, strict domain.RateLimitConfig) {
	return domain.RateLimitConfig{Name: "default", MaxRequests: c.DefaultMax, Window: c.DefaultWindow},
		domain.RateLimitConfig{Name: "auth", MaxRequests: c.AuthMax, Window: c.AuthWindow},
		domain.RateLimitConfig{Name: "strict", MaxRequests: c.StrictMax, Window: c.StrictWindow}
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// BootstrapConfig seeds the first administrator account. Skipped when the
// email or password is empty.
type BootstrapConfig struct {
	AdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	AdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
	AdminName     string `env:"BOOTSTRAP_ADMIN_NAME, default=Administrator"`
}

// Load reads configuration from a .env file, when present, and then from
// environment variables using go-envconfig.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := load(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}

	switch c.RateLimit.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("RATE_LIMIT_BACKEND=redis requires REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q", BackendMemory, BackendRedis))
	}

	def, auth, strict := c.RateLimit.Presets()
	for _, p := range []domain.RateLimitConfig{def, auth, strict} {
		if p.MaxRequests <= 0 || p.Window <= 0 {
			errs = append(errs, fmt.Errorf("rate limit %q needs a positive max and window", p.Name))
		}
	}

	if c.Audit.Workers <= 0 {
		errs = append(errs, errors.New("AUDIT_WORKERS must be positive"))
	}
	return errors.Join(errs...)
}
