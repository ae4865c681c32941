package tourneyauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/internal"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/session"
)

func (e *Engine) createUserSession(ctx context.Context, user UserRecord, rememberMe bool) (*LoginResult, error) {
	if user.UserID == "" {
		return nil, ErrInvalidInput
	}

	role := user.Role
	if role == "" {
		role = RoleUser
	}

	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, ErrSessionCreationFailed
	}

	ttl := e.config.Session.DefaultTTL
	if rememberMe {
		ttl = e.config.Session.RememberMeTTL
	}

	now := time.Now()
	sess := &session.Session{
		SessionID:     sid.String(),
		UserID:        user.UserID,
		Email:         user.Email,
		Username:      user.Username,
		Role:          role,
		Authenticated: true,
		Fingerprint: session.Fingerprint{
			IP:        clientIPFromContext(ctx),
			UserAgent: userAgentFromContext(ctx),
		},
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}

	if err := e.sessionStore.Save(ctx, sess, ttl); err != nil {
		e.emitAudit(ctx, auditEventSessionCreated, false, user.UserID, "", ErrSessionCreationFailed, nil)
		return nil, ErrSessionCreationFailed
	}

	e.metricInc(MetricSessionCreated)

	return &LoginResult{
		UserID:    user.UserID,
		Email:     user.Email,
		Username:  user.Username,
		SessionID: sess.SessionID,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// CurrentUser describes the currentuser operation and its observable behavior.
//
// CurrentUser may return [ErrSessionNotFound] when the session is absent,
// expired, or fails the fingerprint check.
func (e *Engine) CurrentUser(ctx context.Context, sessionID string) (*Principal, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	sess, err := e.validatedSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &Principal{
		UserID:   sess.UserID,
		Email:    sess.Email,
		Username: sess.Username,
		Role:     sess.Role,
		IsGuest:  sess.IsGuest,
	}, nil
}

// IsAuthenticated describes the isauthenticated operation and its observable behavior.
//
// IsAuthenticated reports false for absent, expired, unauthenticated, or
// fingerprint-rejected sessions. It never returns an error; backends failing
// closed count as not authenticated.
func (e *Engine) IsAuthenticated(ctx context.Context, sessionID string) bool {
	if e == nil {
		return false
	}

	start := time.Now()
	_, err := e.validatedSession(ctx, sessionID)
	e.metrics.Observe(MetricSessionCheckLatency, time.Since(start))

	return err == nil
}

// DestroySession describes the destroysession operation and its observable behavior.
//
// DestroySession is idempotent: destroying an absent session is a success.
func (e *Engine) DestroySession(ctx context.Context, sessionID string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if sessionID == "" {
		return nil
	}

	sess, err := e.sessionStore.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if errors.Is(err, session.ErrRedisUnavailable) {
			return ErrBackendUnavailable
		}
		// Corrupt blob: remove the key without an index entry to clean.
		sess = &session.Session{SessionID: sessionID}
	}

	if err := e.sessionStore.Delete(ctx, sessionID, sess.UserID); err != nil {
		return ErrBackendUnavailable
	}

	e.metricInc(MetricSessionDestroyed)
	e.emitAudit(ctx, auditEventSessionDestroyed, true, sess.UserID, sessionID, nil, nil)

	return nil
}

// CSRFToken describes the csrftoken operation and its observable behavior.
//
// CSRFToken may return [ErrSessionNotFound]; tokens are only minted against
// live sessions.
func (e *Engine) CSRFToken(ctx context.Context, sessionID string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	if _, err := e.validatedSession(ctx, sessionID); err != nil {
		return "", err
	}

	return e.csrfGuard.Token(sessionID), nil
}

// ValidateCSRF describes the validatecsrf operation and its observable behavior.
//
// ValidateCSRF may return [ErrCSRFValidationFailed]. The session itself is
// not re-validated here; pair it with [Engine.IsAuthenticated] on guarded
// routes.
func (e *Engine) ValidateCSRF(ctx context.Context, sessionID, token string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if err := e.csrfGuard.Validate(sessionID, token); err != nil {
		e.metricInc(MetricCSRFRejected)
		e.emitAudit(ctx, auditEventCSRFRejected, false, "", sessionID, ErrCSRFValidationFailed, nil)
		return ErrCSRFValidationFailed
	}

	return nil
}

func (e *Engine) validatedSession(ctx context.Context, sessionID string) (*session.Session, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	sess, err := e.sessionStore.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, ErrBackendUnavailable
	}

	if !sess.Authenticated {
		return nil, ErrSessionNotFound
	}

	if err := e.checkFingerprint(ctx, sess); err != nil {
		return nil, err
	}

	return sess, nil
}

// checkFingerprint compares the stored request fingerprint against the
// current one. Registered users must match on both IP and user agent; guests
// skip the IP check (mobile networks rotate addresses far too often for a
// 48-hour anonymous session) but must match the user agent and carry user
// data.
func (e *Engine) checkFingerprint(ctx context.Context, sess *session.Session) error {
	currentIP := clientIPFromContext(ctx)
	currentUA := userAgentFromContext(ctx)

	uaMatch := constantTimeEqual(sess.Fingerprint.UserAgent, currentUA)

	if sess.IsGuest {
		if sess.UserID == "" || sess.Username == "" {
			e.rejectFingerprint(ctx, sess, "guest session missing user data")
			return ErrFingerprintRejected
		}
		if !uaMatch {
			e.metricInc(MetricFingerprintUAMismatch)
			log.Printf(
				"tourneyauth: guest session %s user-agent mismatch: stored %q, current %q",
				sess.SessionID, sess.Fingerprint.UserAgent, currentUA,
			)
			e.rejectFingerprint(ctx, sess, "user agent mismatch")
			return ErrFingerprintRejected
		}
		return nil
	}

	ipMatch := constantTimeEqual(sess.Fingerprint.IP, currentIP)
	if !ipMatch {
		e.metricInc(MetricFingerprintIPMismatch)
		log.Printf(
			"tourneyauth: session %s ip mismatch: stored %q, current %q",
			sess.SessionID, sess.Fingerprint.IP, currentIP,
		)
	}
	if !uaMatch {
		e.metricInc(MetricFingerprintUAMismatch)
		log.Printf(
			"tourneyauth: session %s user-agent mismatch: stored %q, current %q",
			sess.SessionID, sess.Fingerprint.UserAgent, currentUA,
		)
	}
	if !ipMatch || !uaMatch {
		reason := "user agent mismatch"
		if !ipMatch {
			reason = "ip mismatch"
		}
		e.rejectFingerprint(ctx, sess, reason)
		return ErrFingerprintRejected
	}

	return nil
}

func (e *Engine) rejectFingerprint(ctx context.Context, sess *session.Session, reason string) {
	e.metricInc(MetricFingerprintRejected)
	e.emitAudit(ctx, auditEventFingerprintRejected, false, sess.UserID, sess.SessionID, ErrFingerprintRejected, func() map[string]string {
		return map[string]string{"reason": reason}
	})
}

func constantTimeEqual(a, b string) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
