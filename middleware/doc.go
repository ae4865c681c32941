// Package middleware provides net/http middleware for the tournament auth
// stack: request-fingerprint extraction into the context and a session guard
// that resolves the cookie principal for downstream handlers.
package middleware
