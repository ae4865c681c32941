package pkce

import (
	"crypto/subtle"
	"sync"
)

// Attempt defines a public type used by tourneyauth APIs.
//
// Attempt holds the secrets of a single in-flight login exchange. Each of the
// stored values is released exactly once: starting a new attempt replaces any
// previous one, so at most one exchange per Attempt is in flight at a time.
type Attempt struct {
	mu       sync.Mutex
	verifier string
	state    string
}

// Initiate describes the initiate operation and its observable behavior.
//
// Initiate may return an error when the system randomness source fails; on
// error no partial attempt state is retained.
// Initiate replaces any previous in-flight attempt on this value.
func (a *Attempt) Initiate() (challenge, state string, err error) {
	verifier, err := NewVerifier()
	if err != nil {
		return "", "", err
	}
	state, err = NewState()
	if err != nil {
		return "", "", err
	}

	a.mu.Lock()
	a.verifier = verifier
	a.state = state
	a.mu.Unlock()

	return DeriveChallenge(verifier), state, nil
}

// ConsumeVerifier describes the consumeverifier operation and its observable behavior.
//
// ConsumeVerifier returns the stored verifier at most once; the second call
// for the same attempt reports false.
func (a *Attempt) ConsumeVerifier() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.verifier == "" {
		return "", false
	}
	v := a.verifier
	a.verifier = ""
	return v, true
}

// VerifyState describes the verifystate operation and its observable behavior.
//
// VerifyState compares the returned state against the stored one and clears
// the slot either way. Absent or mismatched state reports false rather than
// an error; the caller decides whether to abort the exchange.
func (a *Attempt) VerifyState(returned string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	stored := a.state
	a.state = ""

	if stored == "" || returned == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(returned)) == 1
}
