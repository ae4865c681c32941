// Package rate provides internal primitives used to build Redis-backed rate limit keys,
// errors, and limiter behavior for security-sensitive login workflows.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - tl:  — login per-identifier
//   - tli: — login per-IP
//
// # What this package must NOT do
//
//   - Implement account lockout (login state never leaves the session model).
//   - Be imported outside the tourneyauth module.
package rate
