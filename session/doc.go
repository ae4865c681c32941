// Package session holds the typed session record, its versioned binary
// encoding, and the Redis-backed store the engine persists sessions through.
//
// Records never contain password material. TTL in Redis always equals the
// session cookie's max-age, so the store and the browser expire together.
package session
