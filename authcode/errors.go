package authcode

import "errors"

var (
	// ErrNotFound is an exported constant or variable used by the authentication engine.
	ErrNotFound = errors.New("authorization code not found")
	// ErrReplayed is an exported constant or variable used by the authentication engine.
	ErrReplayed = errors.New("authorization code already redeemed")
	// ErrExpired is an exported constant or variable used by the authentication engine.
	ErrExpired = errors.New("authorization code expired")
	// ErrVerifierMismatch is an exported constant or variable used by the authentication engine.
	ErrVerifierMismatch = errors.New("code verifier does not match challenge")
	// ErrMethodUnsupported is an exported constant or variable used by the authentication engine.
	ErrMethodUnsupported = errors.New("unsupported code challenge method")
)
