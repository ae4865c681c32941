package tourneyauth

import "errors"

var (
	// ErrUnauthorized is an exported constant or variable used by the authentication engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is an exported constant or variable used by the authentication engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput is an exported constant or variable used by the authentication engine.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUserNotFound is an exported constant or variable used by the authentication engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrLoginRateLimited is an exported constant or variable used by the authentication engine.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrAccountExists is an exported constant or variable used by the authentication engine.
	ErrAccountExists = errors.New("account already exists")
	// ErrSessionNotFound is an exported constant or variable used by the authentication engine.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionCreationFailed is an exported constant or variable used by the authentication engine.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrFingerprintRejected is an exported constant or variable used by the authentication engine.
	ErrFingerprintRejected = errors.New("session fingerprint rejected")
	// ErrCodeInvalid is an exported constant or variable used by the authentication engine.
	ErrCodeInvalid = errors.New("invalid authorization code")
	// ErrCodeReplayed is an exported constant or variable used by the authentication engine.
	ErrCodeReplayed = errors.New("authorization code replay detected")
	// ErrCodeExpired is an exported constant or variable used by the authentication engine.
	ErrCodeExpired = errors.New("authorization code expired")
	// ErrVerifierMismatch is an exported constant or variable used by the authentication engine.
	ErrVerifierMismatch = errors.New("code verifier mismatch")
	// ErrChallengeMethodUnsupported is an exported constant or variable used by the authentication engine.
	ErrChallengeMethodUnsupported = errors.New("unsupported code challenge method")
	// ErrCSRFValidationFailed is an exported constant or variable used by the authentication engine.
	ErrCSRFValidationFailed = errors.New("csrf validation failed")
	// ErrBackendUnavailable is an exported constant or variable used by the authentication engine.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrProviderDuplicateIdentifier is an exported constant or variable used by the authentication engine.
	ErrProviderDuplicateIdentifier = errors.New("provider duplicate identifier")
)
