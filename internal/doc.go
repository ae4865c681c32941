// Package internal contains helper utilities that are intentionally private to
// tourneyauth, including secure random generation for session ids,
// authorization codes, and guest name tags.
//
// # Sub-packages
//
//   - rate — core Redis-backed rate limit primitives for login throttling
//
// # What this package must NOT do
//
//   - Export types that appear in the public tourneyauth API.
//   - Be imported by any package outside the tourneyauth module.
package internal
