package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb, cfg), mr
}

func TestLimiterAllowsWithinBudget(t *testing.T) {
	l, _ := newTestLimiter(t, Config{
		EnableIPThrottle:      true,
		MaxLoginAttempts:      3,
		LoginCooldownDuration: time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.CheckLogin(ctx, "player@example.com", "10.0.0.1"); err != nil {
			t.Fatalf("attempt %d: unexpected error: %v", i, err)
		}
		if err := l.IncrementLogin(ctx, "player@example.com", "10.0.0.1"); err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
	}
}

func TestLimiterBlocksAfterBudget(t *testing.T) {
	l, _ := newTestLimiter(t, Config{
		MaxLoginAttempts:      2,
		LoginCooldownDuration: time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_ = l.IncrementLogin(ctx, "player@example.com", "")
	}
	if err := l.IncrementLogin(ctx, "player@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := l.CheckLogin(ctx, "player@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited from check, got %v", err)
	}
}

func TestLimiterIPThrottleIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, Config{
		EnableIPThrottle:      true,
		MaxLoginAttempts:      2,
		LoginCooldownDuration: time.Minute,
	})
	ctx := context.Background()

	// Same IP hammering different identifiers still trips the IP counter.
	_ = l.IncrementLogin(ctx, "a@example.com", "10.0.0.9")
	_ = l.IncrementLogin(ctx, "b@example.com", "10.0.0.9")
	err := l.IncrementLogin(ctx, "c@example.com", "10.0.0.9")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on third IP hit, got %v", err)
	}
}

func TestLimiterResetClearsCounters(t *testing.T) {
	l, _ := newTestLimiter(t, Config{
		EnableIPThrottle:      true,
		MaxLoginAttempts:      1,
		LoginCooldownDuration: time.Minute,
	})
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "player@example.com", "10.0.0.1")
	_ = l.IncrementLogin(ctx, "player@example.com", "10.0.0.1")

	if err := l.ResetLogin(ctx, "player@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := l.CheckLogin(ctx, "player@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("expected clean slate after reset, got %v", err)
	}

	n, err := l.GetLoginAttempts(ctx, "player@example.com")
	if err != nil {
		t.Fatalf("get attempts: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 attempts after reset, got %d", n)
	}
}

func TestLimiterCooldownExpires(t *testing.T) {
	l, mr := newTestLimiter(t, Config{
		MaxLoginAttempts:      1,
		LoginCooldownDuration: 30 * time.Second,
	})
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "player@example.com", "")
	_ = l.IncrementLogin(ctx, "player@example.com", "")

	if err := l.CheckLogin(ctx, "player@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited before cooldown, got %v", err)
	}

	mr.FastForward(31 * time.Second)

	if err := l.CheckLogin(ctx, "player@example.com", ""); err != nil {
		t.Fatalf("expected counter expiry after cooldown, got %v", err)
	}
}
