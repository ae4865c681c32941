// Package userstore is a Redis-backed account store implementing the engine's
// user provider contract: user records live in hashes, with unique indexes on
// email and username maintained atomically by Lua scripts.
package userstore
