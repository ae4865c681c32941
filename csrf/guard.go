package csrf

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// ErrValidationFailed is an exported constant or variable used by the authentication engine.
var ErrValidationFailed = errors.New("csrf validation failed")

const minSecretBytes = 32

// Guard defines a public type used by tourneyauth APIs.
//
// Guard instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Guard struct {
	secret []byte
}

// NewGuard describes the newguard operation and its observable behavior.
//
// NewGuard may return an error when the secret is shorter than 32 bytes.
// NewGuard does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewGuard(secret []byte) (*Guard, error) {
	if len(secret) < minSecretBytes {
		return nil, errors.New("csrf secret must be at least 32 bytes")
	}

	owned := make([]byte, len(secret))
	copy(owned, secret)

	return &Guard{secret: owned}, nil
}

// Token describes the token operation and its observable behavior.
//
// Token is a pure function of the guard secret and the session id; repeated
// calls for one session return the same value for the session's lifetime.
func (g *Guard) Token(sessionID string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(sessionID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return [ErrValidationFailed] when the session id or token is
// absent, or when the token was not minted for this session. Comparison is
// constant time.
func (g *Guard) Validate(sessionID, token string) error {
	if sessionID == "" || token == "" {
		return ErrValidationFailed
	}

	if !hmac.Equal([]byte(g.Token(sessionID)), []byte(token)) {
		return ErrValidationFailed
	}

	return nil
}
