package httpapi

import (
	"net/http"

	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/middleware"
)

// CSRFHeaderName is the request header carrying the session-bound token.
const CSRFHeaderName = "X-CSRF-Token"

// csrfExempt lists the mutating endpoints reachable before a session exists
// (or that only destroy one). Everything else that mutates state must present
// a token minted for the caller's session.
var csrfExempt = map[string]struct{}{
	"/auth/login":    {},
	"/auth/token":    {},
	"/auth/logout":   {},
	"/auth/guest":    {},
	"/auth/register": {},
}

// CSRFMiddleware enforces the session-bound CSRF token on mutating,
// cookie-authenticated requests. Safe methods and the exempt auth endpoints
// pass through; so do requests without a session cookie, because cross-origin
// callers cannot set custom headers in the first place.
func (a *API) CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if _, exempt := csrfExempt[r.URL.Path]; exempt {
			next.ServeHTTP(w, r)
			return
		}

		sid := middleware.SessionID(r)
		if sid == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get(CSRFHeaderName)
		if token == "" {
			writeCodedError(w, http.StatusForbidden, CodeCSRFValidationFailed, "missing csrf token")
			return
		}
		if err := a.engine.ValidateCSRF(r.Context(), sid, token); err != nil {
			mapError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
