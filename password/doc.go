// Package password provides Argon2id credential hashing with PHC-formatted
// output and constant-time verification. Hash parameters below the enforced
// minimums are rejected at construction, never silently raised.
package password
