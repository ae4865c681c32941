package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tourneyauth "github.com/karanshukla/totalwarhammer-tournament-app-sub000"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/middleware"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/pkce"
)

type memProvider struct {
	mu      sync.Mutex
	users   map[string]tourneyauth.UserRecord
	byEmail map[string]string
}

func newMemProvider() *memProvider {
	return &memProvider{
		users:   map[string]tourneyauth.UserRecord{},
		byEmail: map[string]string{},
	}
}

func (m *memProvider) GetUserByEmail(_ context.Context, email string) (tourneyauth.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byEmail[email]
	if !ok {
		return tourneyauth.UserRecord{}, tourneyauth.ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *memProvider) GetUserByID(_ context.Context, userID string) (tourneyauth.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return tourneyauth.UserRecord{}, tourneyauth.ErrUserNotFound
	}
	return user, nil
}

func (m *memProvider) CreateUser(_ context.Context, input tourneyauth.CreateUserInput) (tourneyauth.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[input.Email]; exists {
		return tourneyauth.UserRecord{}, tourneyauth.ErrProviderDuplicateIdentifier
	}

	user := tourneyauth.UserRecord{
		UserID:       "u" + input.Username,
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
	}
	m.users[user.UserID] = user
	m.byEmail[user.Email] = user.UserID
	return user, nil
}

func (m *memProvider) UpdateUsername(_ context.Context, userID, username string) (tourneyauth.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return tourneyauth.UserRecord{}, tourneyauth.ErrUserNotFound
	}
	user.Username = username
	m.users[userID] = user
	return user, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := tourneyauth.DefaultConfig()
	cfg.CSRF.Secret = bytes.Repeat([]byte("k"), 32)
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	engine, err := tourneyauth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(newMemProvider()).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	srv := httptest.NewServer(New(engine).Router())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	return srv, client
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, Envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func dataMap(t *testing.T, env Envelope) map[string]any {
	t.Helper()

	m, ok := env.Data.(map[string]any)
	require.True(t, ok, "data payload should be an object, got %T", env.Data)
	return m
}

func register(t *testing.T, client *http.Client, baseURL, email, username, password string) {
	t.Helper()

	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/auth/register", RegisterRequest{
		Email:    email,
		Username: username,
		Password: password,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, env.Success)
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestRegisterLoginAndMe(t *testing.T) {
	srv, client := newTestServer(t)
	register(t, client, srv.URL, "karl@empire.example", "karlfranz", "sigmar-protects")

	resp, env := doJSON(t, client, http.MethodPost, srv.URL+"/auth/login", LoginRequest{
		Email:    "Karl@Empire.example",
		Password: "sigmar-protects",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie, "login should set the session cookie")
	assert.True(t, cookie.HttpOnly)
	// Default session: roughly two hours.
	assert.InDelta(t, 2*time.Hour/time.Second, cookie.MaxAge, 10)

	data := dataMap(t, env)
	assert.Equal(t, "karl@empire.example", data["email"])
	assert.Equal(t, "karlfranz", data["username"])

	resp, env = doJSON(t, client, http.MethodGet, srv.URL+"/auth/me", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := dataMap(t, env)
	assert.Equal(t, "ukarlfranz", me["id"])
	assert.Equal(t, "user", me["role"])
}

func TestRegisterDuplicateConflict(t *testing.T) {
	srv, client := newTestServer(t)
	register(t, client, srv.URL, "karl@empire.example", "karlfranz", "sigmar-protects")

	resp, env := doJSON(t, client, http.MethodPost, srv.URL+"/auth/register", RegisterRequest{
		Email:    "karl@empire.example",
		Username: "other",
		Password: "sigmar-protects",
	}, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, "account already exists", env.Message)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv, client := newTestServer(t)
	register(t, client, srv.URL, "karl@empire.example", "karlfranz", "sigmar-protects")

	resp, env := doJSON(t, client, http.MethodPost, srv.URL+"/auth/login", LoginRequest{
		Email:    "karl@empire.example",
		Password: "wrong-password",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid credentials", env.Message)
	assert.Nil(t, sessionCookie(resp))

	// Unknown account reads identically.
	resp, env = doJSON(t, client, http.MethodPost, srv.URL+"/auth/login", LoginRequest{
		Email:    "nobody@empire.example",
		Password: "wrong-password",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid credentials", env.Message)
}

func TestLoginValidationErrors(t *testing.T) {
	srv, client := newTestServer(t)

	resp, env := doJSON(t, client, http.MethodPost, srv.URL+"/auth/login", LoginRequest{}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)
	require.Len(t, env.Errors, 2)
	assert.Equal(t, "email", env.Errors[0].Field)
	assert.Equal(t, "password", env.Errors[1].Field)
}

func TestAuthorizationCodeFlow(t *testing.T) {
	srv, client := newTestServer(t)
	register(t, client, srv.URL, "karl@empire.example", "karlfranz", "sigmar-protects")

	attempt := &pkce.Attempt{}
	challenge, state, err := attempt.Initiate()
	require.NoError(t, err)

	resp, env := doJSON(t, client, http.MethodPost, srv.URL+"/auth/login", LoginRequest{
		Email:               "karl@empire.example",
		Password:            "sigmar-protects",
		RememberMe:          true,
		CodeChallenge:       challenge,
		CodeChallengeMethod: pkce.MethodS256,
		State:               state,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, sessionCookie(resp), "code issuance must not create a session")

	data := dataMap(t, env)
	code, _ := data["authorizationCode"].(string)
	require.NotEmpty(t, code)
	require.True(t, attempt.VerifyState(data["state"].(string)))

	verifier, ok := attempt.ConsumeVerifier()
	require.True(t, ok)

	resp, env = doJSON(t, client, http.MethodPost, srv.URL+"/auth/token", TokenRequest{
		GrantType:    "authorization_code",
		Code:         code,
		CodeVerifier: verifier,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	// rememberMe was captured at login time: roughly seven days.
	assert.InDelta(t, 7*24*time.Hour/time.Second, cookie.MaxAge, 10)

	resp, _ = doJSON(t, client, http.MethodGet, srv.URL+"/auth/me", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Replaying the redeemed code is rejected.
	resp, env = doJSON(t, client, http.MethodPost, srv.URL+"/auth/token", TokenRequest{
		GrantType:    "authorization_code",
		Code:         code,
		CodeVerifier: verifier,
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid or expired authorization code", env.Message)
}

func TestTokenRejectsUnknownGrantType(t *testing.T) {
	srv, client := newTestServer(t)

	resp, env := doJSON(t, client, http.MethodPost, srv.URL+"/auth/token", TokenRequest{
		GrantType:    "password",
		Code:         "x",
		CodeVerifier: "y",
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unsupported grant_type", env.Message)
}

func TestProfileUpdateRequiresCSRF(t *testing.T) {
	srv, client := newTestServer(t)
	register(t, client, srv.URL, "karl@empire.example", "karlfranz", "sigmar-protects")
	resp, _ := doJSON(t, client, http.MethodPost, srv.URL+"/auth/login", LoginRequest{
		Email:    "karl@empire.example",
		Password: "sigmar-protects",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Without the header the mutation is refused.
	resp, env := doJSON(t, client, http.MethodPut, srv.URL+"/auth/profile", UpdateProfileRequest{Username: "emperor"}, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, CodeCSRFValidationFailed, env.Code)

	// A forged token is refused too.
	resp, env = doJSON(t, client, http.MethodPut, srv.URL+"/auth/profile", UpdateProfileRequest{Username: "emperor"},
		map[string]string{CSRFHeaderName: "forged"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, CodeCSRFValidationFailed, env.Code)

	resp, env = doJSON(t, client, http.MethodGet, srv.URL+"/auth/csrf-token", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := dataMap(t, env)["csrfToken"].(string)
	require.NotEmpty(t, token)

	resp, env = doJSON(t, client, http.MethodPut, srv.URL+"/auth/profile", UpdateProfileRequest{Username: "emperor"},
		map[string]string{CSRFHeaderName: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "emperor", dataMap(t, env)["username"])
}

func TestCSRFTokenRequiresSession(t *testing.T) {
	srv, client := newTestServer(t)

	resp, env := doJSON(t, client, http.MethodGet, srv.URL+"/auth/csrf-token", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestGuestSession(t *testing.T) {
	srv, client := newTestServer(t)

	resp, env := doJSON(t, client, http.MethodPost, srv.URL+"/auth/guest", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.InDelta(t, 48*time.Hour/time.Second, cookie.MaxAge, 10)

	data := dataMap(t, env)
	assert.Equal(t, true, data["isGuest"])
	username, _ := data["username"].(string)
	assert.Contains(t, username, "guest-")

	resp, env = doJSON(t, client, http.MethodGet, srv.URL+"/auth/me", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "guest", dataMap(t, env)["role"])
}

func TestLogout(t *testing.T) {
	srv, client := newTestServer(t)
	register(t, client, srv.URL, "karl@empire.example", "karlfranz", "sigmar-protects")
	resp, _ := doJSON(t, client, http.MethodPost, srv.URL+"/auth/login", LoginRequest{
		Email:    "karl@empire.example",
		Password: "sigmar-protects",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env := doJSON(t, client, http.MethodPost, srv.URL+"/auth/logout", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.Equal(t, -1, cookie.MaxAge)

	resp, _ = doJSON(t, client, http.MethodGet, srv.URL+"/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Logging out again without a session still reports success.
	resp, env = doJSON(t, client, http.MethodPost, srv.URL+"/auth/logout", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
}
