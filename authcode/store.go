package authcode

import "context"

// IssueInput defines a public type used by tourneyauth APIs.
//
// IssueInput instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type IssueInput struct {
	UserID              string
	CodeChallenge       string
	CodeChallengeMethod string
	RememberMe          bool
}

// Redemption defines a public type used by tourneyauth APIs.
//
// Redemption instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Redemption struct {
	UserID     string
	RememberMe bool
}

// Store defines a public type used by tourneyauth APIs.
//
// Store is the authorization-code contract the engine consumes: codes are
// issued against an S256 challenge and redeemed at most once. Implementations
// must guarantee that two concurrent redemptions of one code admit exactly
// one caller.
type Store interface {
	// Issue mints a single-use authorization code bound to the given
	// challenge. Only the S256 method is accepted.
	Issue(ctx context.Context, in IssueInput) (string, error)

	// Redeem validates the verifier against the stored challenge and
	// consumes the code. A mismatched verifier does not consume the code;
	// replay of a consumed code returns [ErrReplayed].
	Redeem(ctx context.Context, code, verifier string) (Redemption, error)

	// Close releases any background resources held by the store.
	Close() error
}
