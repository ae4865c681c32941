// Package authcode implements the server-side authorization-code store for the
// login exchange: short-lived single-use codes bound to an S256 code
// challenge, redeemed exactly once against the matching verifier.
//
// The [Store] interface is what the engine consumes; [MemoryStore] is the
// in-process implementation, a deliberate single-instance design. A shared
// backing store can be swapped in through the builder without touching
// redemption semantics.
package authcode
