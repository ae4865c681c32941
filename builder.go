package tourneyauth

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/authcode"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/csrf"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/internal/rate"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/password"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/session"
)

// Builder defines a public type used by tourneyauth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	userProvider UserProvider
	auditSink    AuditSink
	codeStore    authcode.Store

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserProvider describes the withuserprovider operation and its observable behavior.
//
// WithUserProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithCodeStore replaces the default in-process authorization-code store.
// Intended for multi-instance deployments that need a shared backing store.
func (b *Builder) WithCodeStore(store authcode.Store) *Builder {
	b.codeStore = store
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Every missing dependency fails here, never lazily on first use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}

	guard, err := csrf.NewGuard(cfg.CSRF.Secret)
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Params{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	codeStore := b.codeStore
	ownedCodeStore := false
	if codeStore == nil {
		codeStore = authcode.NewMemoryStore(authcode.MemoryConfig{
			TTL:           cfg.AuthCode.TTL,
			SweepInterval: cfg.AuthCode.SweepInterval,
		})
		ownedCodeStore = true
	}

	engine := &Engine{
		config:         cfg,
		sessionStore:   session.NewStore(b.redis),
		codeStore:      codeStore,
		ownedCodeStore: ownedCodeStore,
		csrfGuard:      guard,
		passwordHash:   hasher,
		userProvider:   b.userProvider,
		rateLimiter: rate.New(b.redis, rate.Config{
			EnableIPThrottle:      cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
		}),
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	b.built = true

	return engine, nil
}
