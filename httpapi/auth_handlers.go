package httpapi

import (
	"net/http"

	tourneyauth "github.com/karanshukla/totalwarhammer-tournament-app-sub000"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/middleware"
)

// LoginRequest carries the credential login payload. The three PKCE fields
// are optional as a group: when codeChallenge is present the server answers
// with a single-use authorization code instead of a session cookie.
type LoginRequest struct {
	Email               string `json:"email"`
	Password            string `json:"password"`
	RememberMe          bool   `json:"rememberMe,omitempty"`
	CodeChallenge       string `json:"codeChallenge,omitempty"`
	CodeChallengeMethod string `json:"codeChallengeMethod,omitempty"`
	State               string `json:"state,omitempty"`
}

// TokenRequest carries the authorization-code exchange payload.
type TokenRequest struct {
	GrantType    string `json:"grant_type"`
	Code         string `json:"code"`
	CodeVerifier string `json:"code_verifier"`
}

// RegisterRequest carries the account creation payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries the profile mutation payload.
type UpdateProfileRequest struct {
	Username string `json:"username"`
}

// SessionResponse is the data payload for endpoints that establish or
// describe a session.
type SessionResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username"`
	Role      string `json:"role,omitempty"`
	IsGuest   bool   `json:"isGuest,omitempty"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
}

// CodeResponse is the data payload when login hands back an authorization
// code for a follow-up exchange instead of a cookie.
type CodeResponse struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	Username          string `json:"username"`
	AuthorizationCode string `json:"authorizationCode"`
	State             string `json:"state,omitempty"`
}

// CSRFTokenResponse is the data payload of GET /auth/csrf-token.
type CSRFTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}

// Login handles POST /auth/login. Without a code challenge it creates the
// session directly and sets the cookie; with one it returns an authorization
// code and leaves session creation to the token exchange.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r)
	if !ok {
		return
	}
	if req.Email == "" || req.Password == "" {
		var fields []FieldError
		if req.Email == "" {
			fields = append(fields, FieldError{Field: "email", Message: "email is required"})
		}
		if req.Password == "" {
			fields = append(fields, FieldError{Field: "password", Message: "password is required"})
		}
		writeFieldErrors(w, "missing credentials", fields...)
		return
	}

	result, err := a.engine.Login(r.Context(), tourneyauth.LoginInput{
		Email:               req.Email,
		Password:            req.Password,
		RememberMe:          req.RememberMe,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		State:               req.State,
	})
	if err != nil {
		mapError(w, err)
		return
	}

	if result.AuthorizationCode != "" {
		writeData(w, http.StatusOK, "authorization code issued", CodeResponse{
			ID:                result.UserID,
			Email:             result.Email,
			Username:          result.Username,
			AuthorizationCode: result.AuthorizationCode,
			State:             result.State,
		})
		return
	}

	a.writeSessionCookie(w, result.SessionID, result.ExpiresAt)
	writeData(w, http.StatusOK, "login successful", SessionResponse{
		ID:        result.UserID,
		Email:     result.Email,
		Username:  result.Username,
		ExpiresAt: result.ExpiresAt,
	})
}

// Token handles POST /auth/token: redeems an authorization code plus its
// verifier for a session cookie.
func (a *API) Token(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[TokenRequest](w, r)
	if !ok {
		return
	}
	if req.GrantType != "authorization_code" {
		writeError(w, http.StatusBadRequest, "unsupported grant_type")
		return
	}
	if req.Code == "" || req.CodeVerifier == "" {
		writeError(w, http.StatusBadRequest, "code and code_verifier are required")
		return
	}

	result, err := a.engine.ExchangeCode(r.Context(), req.Code, req.CodeVerifier)
	if err != nil {
		mapError(w, err)
		return
	}

	a.writeSessionCookie(w, result.SessionID, result.ExpiresAt)
	writeData(w, http.StatusOK, "login successful", SessionResponse{
		ID:        result.UserID,
		Email:     result.Email,
		Username:  result.Username,
		ExpiresAt: result.ExpiresAt,
	})
}

// Logout handles POST /auth/logout. It always reports success and clears the
// cookie, even when no session existed.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r)
	if sid != "" {
		// Backend failures still clear the browser cookie; the server-side
		// entry expires on its own TTL.
		_ = a.engine.DestroySession(r.Context(), sid)
	}
	a.clearSessionCookie(w)
	writeData(w, http.StatusOK, "logged out", nil)
}

// GuestLogin handles POST /auth/guest: an anonymous 48-hour session with no
// credentials involved.
func (a *API) GuestLogin(w http.ResponseWriter, r *http.Request) {
	result, err := a.engine.LoginGuest(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}

	a.writeSessionCookie(w, result.SessionID, result.ExpiresAt)
	writeData(w, http.StatusOK, "guest session created", SessionResponse{
		ID:        result.UserID,
		Username:  result.Username,
		IsGuest:   true,
		ExpiresAt: result.ExpiresAt,
	})
}

// Register handles POST /auth/register. A duplicate email or username
// answers 409 without revealing which of the two collided.
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[RegisterRequest](w, r)
	if !ok {
		return
	}
	var fields []FieldError
	if req.Email == "" {
		fields = append(fields, FieldError{Field: "email", Message: "email is required"})
	}
	if req.Username == "" {
		fields = append(fields, FieldError{Field: "username", Message: "username is required"})
	}
	if req.Password == "" {
		fields = append(fields, FieldError{Field: "password", Message: "password is required"})
	}
	if len(fields) > 0 {
		writeFieldErrors(w, "missing registration fields", fields...)
		return
	}

	principal, err := a.engine.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		mapError(w, err)
		return
	}

	writeData(w, http.StatusCreated, "registration successful", SessionResponse{
		ID:       principal.UserID,
		Email:    principal.Email,
		Username: principal.Username,
		Role:     principal.Role,
	})
}

// CSRFToken handles GET /auth/csrf-token. Tokens are minted only against a
// live, fingerprint-checked session.
func (a *API) CSRFToken(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r)
	token, err := a.engine.CSRFToken(r.Context(), sid)
	if err != nil {
		mapError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", CSRFTokenResponse{CSRFToken: token})
}

// Me handles GET /auth/me for the guarded group; the principal was resolved
// by the session guard.
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeData(w, http.StatusOK, "", SessionResponse{
		ID:       p.UserID,
		Email:    p.Email,
		Username: p.Username,
		Role:     p.Role,
		IsGuest:  p.IsGuest,
	})
}

// UpdateProfile handles PUT /auth/profile, the CSRF-protected mutation.
func (a *API) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	req, ok := decodeJSON[UpdateProfileRequest](w, r)
	if !ok {
		return
	}
	if req.Username == "" {
		writeFieldErrors(w, "missing profile fields", FieldError{Field: "username", Message: "username is required"})
		return
	}

	updated, err := a.engine.UpdateUsername(r.Context(), p.UserID, req.Username)
	if err != nil {
		mapError(w, err)
		return
	}

	writeData(w, http.StatusOK, "profile updated", SessionResponse{
		ID:       updated.UserID,
		Email:    updated.Email,
		Username: updated.Username,
		Role:     updated.Role,
		IsGuest:  updated.IsGuest,
	})
}
