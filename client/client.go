package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/httpapi"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/pkce"
)

// APIError carries a non-2xx response back to the caller.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error describes the error operation and its observable behavior.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Error %d", e.StatusCode)
	}
	return e.Message
}

// Client defines a public type used by tourneyauth APIs.
//
// Client instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// The zero value is not usable; construct with [NewClient].
type Client struct {
	baseURL string
	http    *http.Client

	mu        sync.Mutex
	csrfToken string
}

// Option configures the Client instance.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport. The client installs its
// own cookie jar when the supplied one has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient describes the newclient operation and its observable behavior.
//
// NewClient may return an error when input validation fails.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, errors.New("base url required")
	}

	c := &Client{baseURL: baseURL}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

// Session is the client-side view of an established or described session.
type Session struct {
	ID        string
	Email     string
	Username  string
	Role      string
	IsGuest   bool
	ExpiresAt time.Time
}

func sessionFromResponse(data httpapi.SessionResponse) *Session {
	s := &Session{
		ID:       data.ID,
		Email:    data.Email,
		Username: data.Username,
		Role:     data.Role,
		IsGuest:  data.IsGuest,
	}
	if data.ExpiresAt > 0 {
		s.ExpiresAt = time.Unix(data.ExpiresAt, 0)
	}
	return s
}

// Login runs the full code-exchange handshake: credentials plus a fresh code
// challenge buy an authorization code, the echoed state is checked, and the
// code plus verifier are redeemed for the session cookie.
func (c *Client) Login(ctx context.Context, email, password string, rememberMe bool) (*Session, error) {
	attempt := &pkce.Attempt{}
	challenge, state, err := attempt.Initiate()
	if err != nil {
		return nil, err
	}

	var code httpapi.CodeResponse
	err = c.do(ctx, http.MethodPost, "/auth/login", httpapi.LoginRequest{
		Email:               email,
		Password:            password,
		RememberMe:          rememberMe,
		CodeChallenge:       challenge,
		CodeChallengeMethod: pkce.MethodS256,
		State:               state,
	}, &code, false)
	if err != nil {
		return nil, err
	}

	if !attempt.VerifyState(code.State) {
		return nil, errors.New("login state mismatch")
	}
	verifier, ok := attempt.ConsumeVerifier()
	if !ok {
		return nil, errors.New("login verifier already consumed")
	}

	var data httpapi.SessionResponse
	err = c.do(ctx, http.MethodPost, "/auth/token", httpapi.TokenRequest{
		GrantType:    "authorization_code",
		Code:         code.AuthorizationCode,
		CodeVerifier: verifier,
	}, &data, false)
	if err != nil {
		return nil, err
	}

	c.clearCSRFToken()
	return sessionFromResponse(data), nil
}

// GuestLogin creates an anonymous session.
func (c *Client) GuestLogin(ctx context.Context) (*Session, error) {
	var data httpapi.SessionResponse
	if err := c.do(ctx, http.MethodPost, "/auth/guest", nil, &data, false); err != nil {
		return nil, err
	}
	c.clearCSRFToken()
	return sessionFromResponse(data), nil
}

// Register creates an account. It does not log the account in.
func (c *Client) Register(ctx context.Context, email, username, password string) (*Session, error) {
	var data httpapi.SessionResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", httpapi.RegisterRequest{
		Email:    email,
		Username: username,
		Password: password,
	}, &data, false)
	if err != nil {
		return nil, err
	}
	return sessionFromResponse(data), nil
}

// Logout destroys the current session. A missing session is not an error.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, false); err != nil {
		return err
	}
	c.clearCSRFToken()
	return nil
}

// Me returns the current principal.
func (c *Client) Me(ctx context.Context) (*Session, error) {
	var data httpapi.SessionResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &data, false); err != nil {
		return nil, err
	}
	return sessionFromResponse(data), nil
}

// UpdateProfile changes the account's username. This is a CSRF-protected
// mutation; the client fetches and caches the token as needed.
func (c *Client) UpdateProfile(ctx context.Context, username string) (*Session, error) {
	var data httpapi.SessionResponse
	err := c.do(ctx, http.MethodPut, "/auth/profile", httpapi.UpdateProfileRequest{
		Username: username,
	}, &data, true)
	if err != nil {
		return nil, err
	}
	return sessionFromResponse(data), nil
}

// do runs one API call. When withCSRF is set the cached token rides along in
// the header; a 403 carrying the CSRF code clears the cache, fetches a fresh
// token, and retries exactly once.
func (c *Client) do(ctx context.Context, method, path string, body, out any, withCSRF bool) error {
	if withCSRF {
		token, err := c.ensureCSRFToken(ctx)
		if err != nil {
			return err
		}

		err = c.roundTrip(ctx, method, path, body, out, token)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == httpapi.CodeCSRFValidationFailed {
			c.clearCSRFToken()
			token, err = c.ensureCSRFToken(ctx)
			if err != nil {
				return err
			}
			return c.roundTrip(ctx, method, path, body, out, token)
		}
		return err
	}

	return c.roundTrip(ctx, method, path, body, out, "")
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any, csrfToken string) error {
	var reader io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return err
		}
		reader = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if csrfToken != "" {
		req.Header.Set(httpapi.CSRFHeaderName, csrfToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	var env envelope
	if len(raw) > 0 {
		// Non-JSON bodies fall through to the status-only error below.
		_ = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       env.Code,
			Message:    env.Message,
		}
	}

	if out == nil || env.Data == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// envelope mirrors the server's response shape with the payload kept raw so
// each call site can decode its own type.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) ensureCSRFToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.csrfToken
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	var data httpapi.CSRFTokenResponse
	if err := c.roundTrip(ctx, http.MethodGet, "/auth/csrf-token", nil, &data, ""); err != nil {
		return "", err
	}
	if data.CSRFToken == "" {
		return "", errors.New("server returned empty csrf token")
	}

	c.mu.Lock()
	c.csrfToken = data.CSRFToken
	c.mu.Unlock()
	return data.CSRFToken, nil
}

func (c *Client) clearCSRFToken() {
	c.mu.Lock()
	c.csrfToken = ""
	c.mu.Unlock()
}
