package session

// Fingerprint defines a public type used by tourneyauth APIs.
//
// Fingerprint instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Fingerprint struct {
	IP        string
	UserAgent string
}

// Session defines a public type used by tourneyauth APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// A Session never stores password hashes or other credential material.
type Session struct {
	SessionID string
	UserID    string
	Email     string
	Username  string

	Role string

	IsGuest       bool
	Authenticated bool

	Fingerprint Fingerprint

	CreatedAt int64
	ExpiresAt int64
}
