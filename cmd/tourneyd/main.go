// Command tourneyd serves the tournament authentication API.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	tourneyauth "github.com/karanshukla/totalwarhammer-tournament-app-sub000"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/httpapi"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/userstore"
)

var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log.Printf("tourneyd %s starting on %s (env %s)", Version, cfg.ListenAddr, cfg.Environment)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis at %s: %w", cfg.RedisAddr, err)
	}

	authCfg := tourneyauth.DefaultConfig()
	authCfg.CSRF.Secret = []byte(cfg.CSRFSecret)
	authCfg.Session.DefaultTTL = cfg.SessionTTL
	authCfg.Session.RememberMeTTL = cfg.RememberMeTTL
	authCfg.Session.GuestTTL = cfg.GuestTTL
	authCfg.Security.ProductionMode = cfg.isProduction()
	authCfg.Security.MaxLoginAttempts = cfg.MaxLoginAttempts
	authCfg.Security.LoginCooldownDuration = cfg.LoginCooldown
	authCfg.Audit.Enabled = cfg.AuditEnabled

	builder := tourneyauth.New().
		WithConfig(authCfg).
		WithRedis(rdb).
		WithUserProvider(userstore.NewStore(rdb)).
		WithMetricsEnabled(cfg.MetricsEnabled)
	if cfg.AuditEnabled {
		builder = builder.WithAuditSink(tourneyauth.NewJSONWriterSink(os.Stderr))
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("building auth engine: %w", err)
	}
	defer engine.Close()

	api := httpapi.New(engine, httpapi.WithProductionMode(cfg.isProduction()))

	root := chi.NewRouter()
	root.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	root.Mount("/", api.Router())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("tourneyd shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
