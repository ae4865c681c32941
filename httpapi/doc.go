// Package httpapi exposes the authentication engine over HTTP: login (direct
// and authorization-code), token exchange, guest sessions, registration,
// logout, CSRF token issuance, and the current-user endpoint. Responses use a
// uniform JSON envelope so browser and Go clients share one error shape.
package httpapi
