// Package csrf implements the double-submit guard for cookie-authenticated
// requests: the token handed to the browser is a deterministic HMAC of the
// session id under a server secret, so validation is stateless and the token
// is worthless outside the session it was minted for.
package csrf
