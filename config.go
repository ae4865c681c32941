package tourneyauth

import (
	"errors"
	"time"
)

// Config defines a public type used by tourneyauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Session  SessionConfig
	AuthCode AuthCodeConfig
	CSRF     CSRFConfig
	Password PasswordConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by tourneyauth APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	DefaultTTL    time.Duration
	RememberMeTTL time.Duration
	GuestTTL      time.Duration
}

/*
====================================
AUTH CODE CONFIG
====================================
*/

// AuthCodeConfig defines a public type used by tourneyauth APIs.
//
// AuthCodeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuthCodeConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

/*
====================================
CSRF CONFIG
====================================
*/

// CSRFConfig defines a public type used by tourneyauth APIs.
//
// CSRFConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CSRFConfig struct {
	Secret []byte
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by tourneyauth APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig defines a public type used by tourneyauth APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	ProductionMode        bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

// AuditConfig defines a public type used by tourneyauth APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by tourneyauth APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig returns the baseline configuration. The CSRF secret is left
// empty on purpose; callers must supply one before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			DefaultTTL:    2 * time.Hour,
			RememberMeTTL: 7 * 24 * time.Hour,
			GuestTTL:      48 * time.Hour,
		},
		AuthCode: AuthCodeConfig{
			TTL:           5 * time.Minute,
			SweepInterval: 15 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        2,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Security: SecurityConfig{
			ProductionMode:        false,
			EnableIPThrottle:      true,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.CSRF.Secret = cloneBytes(cfg.CSRF.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Session
	if c.Session.DefaultTTL <= 0 {
		return errors.New("Session DefaultTTL must be > 0")
	}
	if c.Session.RememberMeTTL < c.Session.DefaultTTL {
		return errors.New("Session RememberMeTTL must be >= DefaultTTL")
	}
	if c.Session.GuestTTL <= 0 {
		return errors.New("Session GuestTTL must be > 0")
	}

	// Auth code
	if c.AuthCode.TTL <= 0 {
		return errors.New("AuthCode TTL must be > 0")
	}
	if c.AuthCode.SweepInterval <= 0 {
		return errors.New("AuthCode SweepInterval must be > 0")
	}

	// CSRF
	if len(c.CSRF.Secret) < 32 {
		return errors.New("CSRF Secret must be at least 32 bytes")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Security
	if c.Security.MaxLoginAttempts <= 0 {
		return errors.New("Security MaxLoginAttempts must be > 0")
	}
	if c.Security.LoginCooldownDuration <= 0 {
		return errors.New("Security LoginCooldownDuration must be > 0")
	}

	return nil
}
