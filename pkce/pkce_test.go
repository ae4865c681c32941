package pkce

import (
	"encoding/hex"
	"strings"
	"testing"
)

func TestDeriveChallengeKnownVector(t *testing.T) {
	// Appendix B of RFC 7636.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cc"

	if got := DeriveChallenge(verifier); got != want {
		t.Fatalf("challenge mismatch: got %q want %q", got, want)
	}
}

func TestNewVerifierLengthAndAlphabet(t *testing.T) {
	v, err := NewVerifier()
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	if len(v) < 43 || len(v) > 128 {
		t.Fatalf("verifier length %d outside [43,128]", len(v))
	}
	const unreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"
	for _, r := range v {
		if !strings.ContainsRune(unreserved, r) {
			t.Fatalf("verifier contains non-unreserved character %q", r)
		}
	}
}

func TestNewStateIsHex64(t *testing.T) {
	s, err := NewState()
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if len(s) != 64 {
		t.Fatalf("state length %d, want 64", len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		t.Fatalf("state not hex: %v", err)
	}
}

func TestAttemptVerifierSingleUse(t *testing.T) {
	var a Attempt

	challenge, _, err := a.Initiate()
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	v, ok := a.ConsumeVerifier()
	if !ok {
		t.Fatal("first ConsumeVerifier returned false")
	}
	if DeriveChallenge(v) != challenge {
		t.Fatal("consumed verifier does not derive the issued challenge")
	}

	if _, ok := a.ConsumeVerifier(); ok {
		t.Fatal("second ConsumeVerifier returned true")
	}
}

func TestAttemptStateSingleUse(t *testing.T) {
	var a Attempt

	_, state, err := a.Initiate()
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	if !a.VerifyState(state) {
		t.Fatal("first VerifyState with matching state returned false")
	}
	if a.VerifyState(state) {
		t.Fatal("second VerifyState returned true; slot should be cleared")
	}
}

func TestAttemptStateMismatchClearsSlot(t *testing.T) {
	var a Attempt

	_, state, err := a.Initiate()
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	if a.VerifyState("tampered") {
		t.Fatal("mismatched state accepted")
	}
	// Mismatch also burns the slot; the original state no longer validates.
	if a.VerifyState(state) {
		t.Fatal("state accepted after a mismatched attempt")
	}
}

func TestAttemptVerifyStateWithoutInitiate(t *testing.T) {
	var a Attempt
	if a.VerifyState("anything") {
		t.Fatal("VerifyState without an attempt returned true")
	}
}

func TestInitiateReplacesPreviousAttempt(t *testing.T) {
	var a Attempt

	_, firstState, err := a.Initiate()
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	_, _, err = a.Initiate()
	if err != nil {
		t.Fatalf("second Initiate: %v", err)
	}

	if a.VerifyState(firstState) {
		t.Fatal("state from a replaced attempt accepted")
	}
}
