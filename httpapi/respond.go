package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	tourneyauth "github.com/karanshukla/totalwarhammer-tournament-app-sub000"
)

// maxBodySize caps request bodies; auth payloads are small JSON documents.
const maxBodySize = 16 << 10

// CodeCSRFValidationFailed marks 403 responses caused by a missing or stale
// CSRF token. Clients key their refresh-and-retry logic on this value.
const CodeCSRFValidationFailed = "CSRF_VALIDATION_FAILED"

// Envelope is the uniform response shape: every endpoint answers with a
// success flag, an optional human-readable message, and the payload under
// data. Failures may carry a machine-readable code and per-field errors.
type Envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Code    string       `json:"code,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError points a validation failure at the offending request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{Success: false, Message: msg})
}

func writeCodedError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, Envelope{Success: false, Message: msg, Code: code})
}

func writeFieldErrors(w http.ResponseWriter, msg string, fields ...FieldError) {
	writeJSON(w, http.StatusBadRequest, Envelope{Success: false, Message: msg, Errors: fields})
}

// decodeJSON reads a size-limited JSON body into T, rejecting unknown fields.
// On failure it writes the 400 itself and reports ok=false.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return v, false
	}
	return v, true
}

// mapError translates engine sentinels into the envelope's status and code.
// Credential and session failures share a single 401 message so responses
// leak nothing about which part was wrong.
func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tourneyauth.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, tourneyauth.ErrChallengeMethodUnsupported):
		writeError(w, http.StatusBadRequest, "unsupported code challenge method")
	case errors.Is(err, tourneyauth.ErrLoginRateLimited):
		writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
	case errors.Is(err, tourneyauth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	// Code redemption failures are terminal: the caller restarts the login
	// flow rather than retrying the exchange.
	case errors.Is(err, tourneyauth.ErrCodeInvalid),
		errors.Is(err, tourneyauth.ErrCodeReplayed),
		errors.Is(err, tourneyauth.ErrCodeExpired),
		errors.Is(err, tourneyauth.ErrVerifierMismatch):
		writeError(w, http.StatusBadRequest, "invalid or expired authorization code")
	case errors.Is(err, tourneyauth.ErrSessionNotFound),
		errors.Is(err, tourneyauth.ErrFingerprintRejected),
		errors.Is(err, tourneyauth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, tourneyauth.ErrCSRFValidationFailed):
		writeCodedError(w, http.StatusForbidden, CodeCSRFValidationFailed, "csrf validation failed")
	case errors.Is(err, tourneyauth.ErrAccountExists):
		writeError(w, http.StatusConflict, "account already exists")
	case errors.Is(err, tourneyauth.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
