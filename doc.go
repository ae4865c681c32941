// Package tourneyauth provides the authentication core for the tournament
// web app: cookie sessions backed by Redis, an optional PKCE-style
// authorization-code exchange layered on top of the password login, guest
// sessions, and a session-bound CSRF guard.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// tourneyauth is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (LoginResult, Principal, MetricsSnapshot).
// Cohesive subsystems live in their own packages — pkce, authcode, session,
// csrf, password — and the HTTP surface and Go client sit on top in httpapi
// and client.
//
// # What this package must NOT do
//
//   - Expose Redis clients, store internals, or encoding details in its
//     public API.
//   - Put credential hashes in sessions, results, or audit events.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
package tourneyauth
