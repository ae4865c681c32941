package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// config holds all environment-based configuration for tourneyd.
type config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// CSRFSecret signs session-bound CSRF tokens. Required, at least 32
	// bytes; rotating it invalidates outstanding tokens but not sessions.
	CSRFSecret string `env:"CSRF_SECRET"`

	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	RememberMeTTL time.Duration `env:"REMEMBER_ME_TTL" envDefault:"168h"`
	GuestTTL      time.Duration `env:"GUEST_SESSION_TTL" envDefault:"48h"`

	MaxLoginAttempts int           `env:"MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	LoginCooldown    time.Duration `env:"LOGIN_COOLDOWN" envDefault:"15m"`

	AuditEnabled   bool `env:"AUDIT_ENABLED" envDefault:"true"`
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// Environment controls cookie hardening.
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// loadConfig reads configuration from environment variables. It first
// attempts to load a .env file if present, then parses env vars.
func loadConfig() (*config, error) {
	_ = godotenv.Load()

	cfg := &config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.CSRFSecret) < 32 {
		return nil, fmt.Errorf("CSRF_SECRET is required and must be at least 32 bytes")
	}

	return cfg, nil
}

// isProduction returns true when the environment is set to production.
func (c *config) isProduction() bool {
	return c.Environment == "production"
}
