package tourneyauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/authcode"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/csrf"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/internal"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/internal/rate"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/password"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/pkce"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/session"
)

// Engine defines a public type used by tourneyauth APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// Build one through [Builder]; the zero value is not usable.
type Engine struct {
	config Config

	sessionStore *session.Store
	codeStore    authcode.Store
	csrfGuard    *csrf.Guard
	passwordHash *password.Hasher
	userProvider UserProvider
	rateLimiter  *rate.Limiter

	audit   *auditDispatcher
	metrics *Metrics

	ownedCodeStore bool
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// A non-empty CodeChallenge routes the call down the code-exchange path: the
// credentials are verified the same way, but instead of a session Login
// returns a single-use authorization code and echoes the caller's state.
func (e *Engine) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrInvalidInput
	}

	withChallenge := in.CodeChallenge != ""
	if withChallenge && in.CodeChallengeMethod != pkce.MethodS256 {
		return nil, ErrChallengeMethodUnsupported
	}

	ip := clientIPFromContext(ctx)
	if err := e.rateLimiter.CheckLogin(ctx, email, ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricLoginRateLimited)
			e.emitRateLimit(ctx, "login", func() map[string]string {
				return map[string]string{"identifier": email}
			})
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", ErrLoginRateLimited, nil)
			return nil, ErrLoginRateLimited
		}
		return nil, ErrBackendUnavailable
	}

	user, err := e.userProvider.GetUserByEmail(ctx, email)
	if err != nil {
		if incErr := e.rateLimiter.IncrementLogin(ctx, email, ip); incErr != nil && !errors.Is(incErr, rate.ErrRateLimited) {
			return nil, ErrBackendUnavailable
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrUserNotFound, nil)
		// Missing account and wrong password are indistinguishable to callers.
		return nil, ErrInvalidCredentials
	}

	ok, err := e.passwordHash.Verify(in.Password, user.PasswordHash)
	if err != nil || !ok {
		if incErr := e.rateLimiter.IncrementLogin(ctx, email, ip); incErr != nil && !errors.Is(incErr, rate.ErrRateLimited) {
			return nil, ErrBackendUnavailable
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.UserID, "", ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	if err := e.rateLimiter.ResetLogin(ctx, email, ip); err != nil {
		return nil, ErrBackendUnavailable
	}

	if withChallenge {
		return e.issueAuthorizationCode(ctx, user, in)
	}

	result, err := e.createUserSession(ctx, user, in.RememberMe)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.UserID, result.SessionID, nil, nil)

	return result, nil
}

func (e *Engine) issueAuthorizationCode(ctx context.Context, user UserRecord, in LoginInput) (*LoginResult, error) {
	code, err := e.codeStore.Issue(ctx, authcode.IssueInput{
		UserID:              user.UserID,
		CodeChallenge:       in.CodeChallenge,
		CodeChallengeMethod: in.CodeChallengeMethod,
		RememberMe:          in.RememberMe,
	})
	if err != nil {
		if errors.Is(err, authcode.ErrMethodUnsupported) {
			return nil, ErrChallengeMethodUnsupported
		}
		return nil, ErrBackendUnavailable
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricCodeIssued)
	e.emitAudit(ctx, auditEventCodeIssued, true, user.UserID, "", nil, nil)

	return &LoginResult{
		UserID:            user.UserID,
		Email:             user.Email,
		Username:          user.Username,
		AuthorizationCode: code,
		State:             in.State,
	}, nil
}

// ExchangeCode describes the exchangecode operation and its observable behavior.
//
// ExchangeCode may return [ErrCodeInvalid], [ErrCodeReplayed], [ErrCodeExpired],
// or [ErrVerifierMismatch]; a mismatch leaves the code redeemable inside its
// TTL. On success the deferred session is created with the rememberMe choice
// captured at login time.
func (e *Engine) ExchangeCode(ctx context.Context, code, verifier string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if code == "" || verifier == "" {
		return nil, ErrInvalidInput
	}

	redemption, err := e.codeStore.Redeem(ctx, code, verifier)
	if err != nil {
		mapped := mapAuthCodeError(err)
		switch {
		case errors.Is(mapped, ErrCodeReplayed):
			e.metricInc(MetricCodeReplayDetected)
			e.emitAudit(ctx, auditEventCodeReplayDetected, false, "", "", mapped, nil)
		case errors.Is(mapped, ErrCodeExpired):
			e.metricInc(MetricCodeExpired)
			e.emitAudit(ctx, auditEventCodeExpired, false, "", "", mapped, nil)
		case errors.Is(mapped, ErrVerifierMismatch):
			e.metricInc(MetricVerifierMismatch)
			e.emitAudit(ctx, auditEventVerifierMismatch, false, "", "", mapped, nil)
		default:
			e.emitAudit(ctx, auditEventCodeRedeemed, false, "", "", mapped, nil)
		}
		return nil, mapped
	}

	user, err := e.userProvider.GetUserByID(ctx, redemption.UserID)
	if err != nil {
		e.emitAudit(ctx, auditEventCodeRedeemed, false, redemption.UserID, "", ErrUserNotFound, nil)
		return nil, ErrUserNotFound
	}

	result, err := e.createUserSession(ctx, user, redemption.RememberMe)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricCodeRedeemed)
	e.emitAudit(ctx, auditEventCodeRedeemed, true, user.UserID, result.SessionID, nil, nil)

	return result, nil
}

// LoginGuest describes the loginguest operation and its observable behavior.
//
// LoginGuest mints a throwaway guest principal with a generated username and
// a 48-hour session. Guest principals are never persisted in the user store;
// they live and die with their session.
func (e *Engine) LoginGuest(ctx context.Context) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	tag, err := internal.NewGuestTag()
	if err != nil {
		return nil, ErrSessionCreationFailed
	}

	guest := UserRecord{
		UserID:   uuid.NewString(),
		Username: "guest-" + tag,
		Role:     RoleGuest,
	}

	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, ErrSessionCreationFailed
	}

	now := time.Now()
	ttl := e.config.Session.GuestTTL
	sess := &session.Session{
		SessionID:     sid.String(),
		UserID:        guest.UserID,
		Username:      guest.Username,
		Role:          RoleGuest,
		IsGuest:       true,
		Authenticated: true,
		Fingerprint: session.Fingerprint{
			IP:        clientIPFromContext(ctx),
			UserAgent: userAgentFromContext(ctx),
		},
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}

	if err := e.sessionStore.Save(ctx, sess, ttl); err != nil {
		e.emitAudit(ctx, auditEventGuestSessionCreated, false, guest.UserID, "", ErrSessionCreationFailed, nil)
		return nil, ErrSessionCreationFailed
	}

	e.metricInc(MetricGuestSessionCreated)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventGuestSessionCreated, true, guest.UserID, sess.SessionID, nil, nil)

	return &LoginResult{
		UserID:    guest.UserID,
		Username:  guest.Username,
		SessionID: sess.SessionID,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// Register describes the register operation and its observable behavior.
//
// Register may return [ErrAccountExists] when the email is taken; the
// duplicate case is deliberately reported to the caller instead of being
// masked, so the UI can point at the existing account.
func (e *Engine) Register(ctx context.Context, email, username, plaintext string) (*Principal, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" || plaintext == "" {
		return nil, ErrInvalidInput
	}

	hash, err := e.passwordHash.Hash(plaintext)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooShort) {
			return nil, ErrInvalidInput
		}
		return nil, ErrBackendUnavailable
	}

	user, err := e.userProvider.CreateUser(ctx, CreateUserInput{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         RoleUser,
	})
	if err != nil {
		if errors.Is(err, ErrProviderDuplicateIdentifier) || errors.Is(err, ErrAccountExists) {
			e.metricInc(MetricRegistrationDuplicate)
			e.emitAudit(ctx, auditEventRegistrationFailure, false, "", "", ErrAccountExists, nil)
			return nil, ErrAccountExists
		}
		e.emitAudit(ctx, auditEventRegistrationFailure, false, "", "", ErrBackendUnavailable, nil)
		return nil, ErrBackendUnavailable
	}

	e.metricInc(MetricRegistrationSuccess)
	e.emitAudit(ctx, auditEventRegistrationSuccess, true, user.UserID, "", nil, nil)

	return &Principal{
		UserID:   user.UserID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

// UpdateUsername describes the updateusername operation and its observable behavior.
//
// UpdateUsername may return an error when input validation or the user
// backend fails.
func (e *Engine) UpdateUsername(ctx context.Context, userID, username string) (*Principal, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	username = strings.TrimSpace(username)
	if userID == "" || username == "" {
		return nil, ErrInvalidInput
	}

	user, err := e.userProvider.UpdateUsername(ctx, userID, username)
	if err != nil {
		switch {
		case errors.Is(err, ErrProviderDuplicateIdentifier):
			return nil, ErrAccountExists
		case errors.Is(err, ErrUserNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, ErrBackendUnavailable
		}
	}

	return &Principal{
		UserID:   user.UserID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

// Metrics returns the engine's metrics facade. Never nil after Build.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close describes the close operation and its observable behavior.
//
// Close drains the audit dispatcher and stops the owned authorization-code
// sweeper. Injected code stores are the caller's to close.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}

	e.audit.Close()

	if e.ownedCodeStore && e.codeStore != nil {
		return e.codeStore.Close()
	}
	return nil
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

func mapAuthCodeError(err error) error {
	switch {
	case errors.Is(err, authcode.ErrNotFound):
		return ErrCodeInvalid
	case errors.Is(err, authcode.ErrReplayed):
		return ErrCodeReplayed
	case errors.Is(err, authcode.ErrExpired):
		return ErrCodeExpired
	case errors.Is(err, authcode.ErrVerifierMismatch):
		return ErrVerifierMismatch
	case errors.Is(err, authcode.ErrMethodUnsupported):
		return ErrChallengeMethodUnsupported
	default:
		return ErrBackendUnavailable
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
