// Package client is the Go SDK for the tournament auth HTTP API. It keeps
// the session cookie in a jar, runs the PKCE-style login handshake, and
// transparently acquires and retries the CSRF token on mutating calls.
package client
