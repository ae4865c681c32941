// Package pkce implements the RFC 7636 S256 code-challenge scheme used by the
// tournament app's login exchange: verifier and state generation on the client
// side, and the shared challenge derivation the server recomputes at
// redemption time.
//
// All randomness comes from crypto/rand and generation fails closed: a
// generator error aborts the attempt instead of degrading to a weaker source.
package pkce
