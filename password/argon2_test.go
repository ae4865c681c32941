package password

import (
	"errors"
	"strings"
	"testing"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()

	// Floor parameters keep the test fast; production uses DefaultParams.
	h, err := NewHasher(Params{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	return h
}

func TestHashAndVerifyRoundTrip(t *testing.T) {
	h := newTestHasher(t)

	encoded, err := h.Hash("karl-franz-rules")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected PHC prefix: %q", encoded)
	}

	ok, err := h.Verify("karl-franz-rules", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password rejected")
	}

	ok, err = h.Verify("settra-rules", encoded)
	if err != nil {
		t.Fatalf("Verify wrong password: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	h := newTestHasher(t)

	if _, err := h.Hash("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestHashProducesUniqueSalts(t *testing.T) {
	h := newTestHasher(t)

	a, err := h.Hash("karl-franz-rules")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash("karl-franz-rules")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of one password are identical; salt reuse")
	}
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	h := newTestHasher(t)

	cases := []string{
		"",
		"not-a-phc-string",
		"$argon2i$v=19$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAA",
		"$argon2id$v=18$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAA",
		"$argon2id$v=19$m=1,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$AAAAAAAAAAAAAAAAAAAAAA",
	}
	for _, encoded := range cases {
		if _, err := h.Verify("whatever-password", encoded); !errors.Is(err, ErrHashFormat) {
			t.Fatalf("hash %q: expected ErrHashFormat, got %v", encoded, err)
		}
	}
}

func TestNewHasherEnforcesMinimums(t *testing.T) {
	weak := Params{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16}
	if _, err := NewHasher(weak); err == nil {
		t.Fatal("expected error for sub-minimum memory")
	}

	if _, err := NewHasher(DefaultParams()); err != nil {
		t.Fatalf("DefaultParams rejected: %v", err)
	}
}
