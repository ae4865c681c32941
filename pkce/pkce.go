package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// MethodS256 is an exported constant or variable used by the authentication engine.
const MethodS256 = "S256"

const (
	verifierRawSize = 32
	stateRawSize    = 32
)

// NewVerifier describes the newverifier operation and its observable behavior.
//
// NewVerifier may return an error when the system randomness source fails.
// NewVerifier does not mutate shared global state and can be used concurrently.
func NewVerifier() (string, error) {
	raw := make([]byte, verifierRawSize)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	// 32 raw bytes encode to 43 characters, the RFC 7636 minimum.
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DeriveChallenge describes the derivechallenge operation and its observable behavior.
//
// DeriveChallenge is a pure function of the verifier; the client and the
// server call the same derivation so redemption-time recomputation matches
// issue-time computation by construction.
func DeriveChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// NewState describes the newstate operation and its observable behavior.
//
// NewState may return an error when the system randomness source fails.
// NewState does not mutate shared global state and can be used concurrently.
func NewState() (string, error) {
	raw := make([]byte, stateRawSize)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
