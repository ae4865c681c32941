package tourneyauth

import "context"

// RoleUser and RoleGuest are the two principal roles the engine mints.
const (
	RoleUser  = "user"
	RoleGuest = "guest"
)

// UserProvider is the primary interface that callers must implement to
// integrate tourneyauth with their user database. It covers credential
// lookup, account creation, and profile updates.
type UserProvider interface {
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	UpdateUsername(ctx context.Context, userID, username string) (UserRecord, error)
}

// UserRecord is the full account record returned by [UserProvider].
// It carries the credential hash; the engine never puts that hash in a
// session or a response.
type UserRecord struct {
	UserID       string
	Email        string
	Username     string
	PasswordHash string
	Role         string
}

// CreateUserInput is the input for [UserProvider.CreateUser]. PasswordHash
// is already encoded; providers never see plaintext passwords.
type CreateUserInput struct {
	Email        string
	Username     string
	PasswordHash string
	Role         string
}

// Principal is the identity attached to an authenticated session, as
// returned by [Engine.CurrentUser].
type Principal struct {
	UserID   string
	Email    string
	Username string
	Role     string
	IsGuest  bool
}

// LoginInput is the input for [Engine.Login]. A non-empty CodeChallenge
// switches the call from the direct-session path to the code-exchange path.
type LoginInput struct {
	Email               string
	Password            string
	RememberMe          bool
	CodeChallenge       string
	CodeChallengeMethod string
	State               string
}

// LoginResult is returned by [Engine.Login], [Engine.ExchangeCode], and
// [Engine.LoginGuest]. Exactly one of SessionID or AuthorizationCode is set:
// the direct path creates the session immediately, the exchange path defers
// it to redemption.
type LoginResult struct {
	UserID   string
	Email    string
	Username string

	SessionID string
	ExpiresAt int64

	AuthorizationCode string
	State             string
}
