package authcode

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/internal"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/pkce"
)

const (
	// DefaultTTL is an exported constant or variable used by the authentication engine.
	DefaultTTL = 5 * time.Minute
	// DefaultSweepInterval is an exported constant or variable used by the authentication engine.
	DefaultSweepInterval = 15 * time.Minute
)

// MemoryConfig defines a public type used by tourneyauth APIs.
//
// MemoryConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MemoryConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

type codeEntry struct {
	challenge  string
	userID     string
	rememberMe bool
	issuedAt   time.Time
	used       bool
}

// MemoryStore defines a public type used by tourneyauth APIs.
//
// MemoryStore is the in-process [Store]: a mutex-guarded map with a background
// sweeper that evicts entries past their TTL whether or not they were
// redeemed. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*codeEntry

	ttl  time.Duration
	now  func() time.Time
	stop chan struct{}
	done chan struct{}
}

// NewMemoryStore describes the newmemorystore operation and its observable behavior.
//
// NewMemoryStore starts the background sweeper; callers own the returned
// store and must Close it to release the sweep goroutine.
func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}

	s := &MemoryStore{
		entries: make(map[string]*codeEntry),
		ttl:     cfg.TTL,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go s.sweepLoop(cfg.SweepInterval)

	return s
}

// Issue describes the issue operation and its observable behavior.
//
// Issue may return an error when input validation or the randomness source fails.
// Issue does not mutate shared global state and can be used concurrently.
func (s *MemoryStore) Issue(_ context.Context, in IssueInput) (string, error) {
	if in.CodeChallengeMethod != pkce.MethodS256 {
		return "", ErrMethodUnsupported
	}
	if in.CodeChallenge == "" || in.UserID == "" {
		return "", ErrVerifierMismatch
	}

	code, err := internal.NewAuthCode()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.entries[code] = &codeEntry{
		challenge:  in.CodeChallenge,
		userID:     in.UserID,
		rememberMe: in.RememberMe,
		issuedAt:   s.now(),
	}
	s.mu.Unlock()

	return code, nil
}

// Redeem describes the redeem operation and its observable behavior.
//
// Redeem may return [ErrNotFound], [ErrReplayed], [ErrExpired], or
// [ErrVerifierMismatch]. The used flag is set under the store lock before the
// entry is released, so two concurrent redemptions of one code admit exactly
// one caller. A mismatched verifier leaves the code redeemable.
func (s *MemoryStore) Redeem(_ context.Context, code, verifier string) (Redemption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[code]
	if !ok {
		return Redemption{}, ErrNotFound
	}

	if entry.used {
		delete(s.entries, code)
		return Redemption{}, ErrReplayed
	}

	if s.now().Sub(entry.issuedAt) > s.ttl {
		delete(s.entries, code)
		return Redemption{}, ErrExpired
	}

	derived := pkce.DeriveChallenge(verifier)
	if subtle.ConstantTimeCompare([]byte(derived), []byte(entry.challenge)) != 1 {
		return Redemption{}, ErrVerifierMismatch
	}

	// Keep the consumed entry as a tombstone so a replayed code is reported
	// as a replay rather than a miss; the sweeper evicts it with the rest.
	entry.used = true

	return Redemption{
		UserID:     entry.userID,
		RememberMe: entry.rememberMe,
	}, nil
}

// Close describes the close operation and its observable behavior.
//
// Close stops the background sweeper and waits for it to exit. Close is
// idempotent only in the sense that the store must not be used afterwards.
func (s *MemoryStore) Close() error {
	close(s.stop)
	<-s.done
	return nil
}

// Len reports the number of live entries. Intended for diagnostics.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for code, entry := range s.entries {
		if now.Sub(entry.issuedAt) > s.ttl {
			delete(s.entries, code)
		}
	}
}
