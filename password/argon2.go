package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	minPassBytes          = 8
	algorithmID           = "argon2id"
)

var (
	// ErrPasswordTooShort is an exported constant or variable used by the authentication engine.
	ErrPasswordTooShort = errors.New("password must be at least 8 bytes")
	// ErrHashFormat is an exported constant or variable used by the authentication engine.
	ErrHashFormat = errors.New("invalid password hash format")
)

// Params defines a public type used by tourneyauth APIs.
//
// Params instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams describes the defaultparams operation and its observable behavior.
//
// DefaultParams does not mutate shared global state and can be used concurrently.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Time:        2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher defines a public type used by tourneyauth APIs.
//
// Hasher instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Hasher struct {
	params Params
}

// NewHasher describes the newhasher operation and its observable behavior.
//
// NewHasher may return an error when the supplied parameters fall below the
// enforced minimums.
// NewHasher does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewHasher(p Params) (*Hasher, error) {
	switch {
	case p.Memory < minMemoryKB:
		return nil, errors.New("password memory must be >= 8192 KB")
	case p.Time < minTimeCost:
		return nil, errors.New("password time must be >= 1")
	case p.Parallelism < minParallelism:
		return nil, errors.New("password parallelism must be >= 1")
	case p.SaltLength < minSaltLength:
		return nil, errors.New("password salt length must be >= 16")
	case p.KeyLength < minKeyLength:
		return nil, errors.New("password key length must be >= 16")
	}

	return &Hasher{params: p}, nil
}

// Hash describes the hash operation and its observable behavior.
//
// Hash may return an error when input validation or the randomness source fails.
// Hash does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (h *Hasher) Hash(password string) (string, error) {
	// Raw string bytes exactly as provided, no Unicode normalization.
	if len(password) < minPassBytes {
		return "", ErrPasswordTooShort
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Time,
		h.params.Memory,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// Verify describes the verify operation and its observable behavior.
//
// Verify may return an error when the stored hash cannot be parsed; a wrong
// password is reported as (false, nil), never as an error.
// Verify does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	memory, timeCost, parallelism, salt, key, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		salt,
		timeCost,
		memory,
		parallelism,
		uint32(len(key)),
	)

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

func parsePHC(encodedHash string) (memory, timeCost uint32, parallelism uint8, salt, key []byte, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return 0, 0, 0, nil, nil, ErrHashFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return 0, 0, 0, nil, nil, ErrHashFormat
	}

	var mem, tc, par uint64
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &tc, &par); err != nil {
		return 0, 0, 0, nil, nil, ErrHashFormat
	}
	if mem < uint64(minMemoryKB) || mem > 1<<32-1 || tc < uint64(minTimeCost) || tc > 1<<32-1 ||
		par < uint64(minParallelism) || par > 255 {
		return 0, 0, 0, nil, nil, ErrHashFormat
	}

	salt, err = base64.StdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < int(minSaltLength) {
		return 0, 0, 0, nil, nil, ErrHashFormat
	}
	key, err = base64.StdEncoding.DecodeString(parts[5])
	if err != nil || len(key) < int(minKeyLength) {
		return 0, 0, 0, nil, nil, ErrHashFormat
	}

	return uint32(mem), uint32(tc), uint8(par), salt, key, nil
}
