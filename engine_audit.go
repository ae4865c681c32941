package tourneyauth

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess        = "login_success"
	auditEventLoginFailure        = "login_failure"
	auditEventLoginRateLimited    = "login_rate_limited"
	auditEventCodeIssued          = "authorization_code_issued"
	auditEventCodeRedeemed        = "authorization_code_redeemed"
	auditEventCodeReplayDetected  = "authorization_code_replay_detected"
	auditEventCodeExpired         = "authorization_code_expired"
	auditEventVerifierMismatch    = "code_verifier_mismatch"
	auditEventFingerprintRejected = "fingerprint_rejected"
	auditEventCSRFRejected        = "csrf_rejected"
	auditEventSessionCreated      = "session_created"
	auditEventGuestSessionCreated = "guest_session_created"
	auditEventSessionDestroyed    = "session_destroyed"
	auditEventRegistrationSuccess = "registration_success"
	auditEventRegistrationFailure = "registration_failure"
	auditEventRateLimitTriggered  = "rate_limit_triggered"
)

// AuditErrorCode defines a public type used by tourneyauth APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrUnauthorized          AuditErrorCode = "unauthorized"
	auditErrInvalidCredentials    AuditErrorCode = "invalid_credentials"
	auditErrInvalidInput          AuditErrorCode = "invalid_input"
	auditErrRateLimited           AuditErrorCode = "rate_limited"
	auditErrUserNotFound          AuditErrorCode = "user_not_found"
	auditErrSessionNotFound       AuditErrorCode = "session_not_found"
	auditErrSessionCreationFailed AuditErrorCode = "session_creation_failed"
	auditErrFingerprintRejected   AuditErrorCode = "fingerprint_rejected"
	auditErrCodeInvalid           AuditErrorCode = "code_invalid"
	auditErrCodeReplay            AuditErrorCode = "code_replay"
	auditErrCodeExpired           AuditErrorCode = "code_expired"
	auditErrVerifierMismatch      AuditErrorCode = "verifier_mismatch"
	auditErrMethodUnsupported     AuditErrorCode = "challenge_method_unsupported"
	auditErrCSRF                  AuditErrorCode = "csrf_validation_failed"
	auditErrDuplicate             AuditErrorCode = "duplicate"
	auditErrUnavailable           AuditErrorCode = "backend_unavailable"
	auditErrInternal              AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(
	ctx context.Context,
	scope string,
	metadataBuilder func() map[string]string,
) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, "", "", nil, func() map[string]string {
		base := map[string]string{
			"scope": scope,
		}
		if metadataBuilder == nil {
			return base
		}
		for k, v := range metadataBuilder() {
			base[k] = v
		}
		return base
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrInvalidInput):
		return auditErrInvalidInput
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrSessionCreationFailed):
		return auditErrSessionCreationFailed
	case errors.Is(err, ErrFingerprintRejected):
		return auditErrFingerprintRejected
	case errors.Is(err, ErrCodeReplayed):
		return auditErrCodeReplay
	case errors.Is(err, ErrCodeExpired):
		return auditErrCodeExpired
	case errors.Is(err, ErrCodeInvalid):
		return auditErrCodeInvalid
	case errors.Is(err, ErrVerifierMismatch):
		return auditErrVerifierMismatch
	case errors.Is(err, ErrChallengeMethodUnsupported):
		return auditErrMethodUnsupported
	case errors.Is(err, ErrCSRFValidationFailed):
		return auditErrCSRF
	case errors.Is(err, ErrAccountExists),
		errors.Is(err, ErrProviderDuplicateIdentifier):
		return auditErrDuplicate
	case errors.Is(err, ErrBackendUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
