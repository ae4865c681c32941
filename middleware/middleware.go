package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	tourneyauth "github.com/karanshukla/totalwarhammer-tournament-app-sub000"
)

// SessionCookieName is the cookie carrying the opaque session id.
const SessionCookieName = "sid"

type principalContextKey struct{}

// PrincipalFromContext returns the principal the [Guard] middleware resolved
// for this request, if any.
func PrincipalFromContext(ctx context.Context) (*tourneyauth.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*tourneyauth.Principal)
	return p, ok
}

// WithPrincipal attaches a resolved principal to ctx. Exposed for handlers
// and tests that sit outside the middleware chain.
func WithPrincipal(ctx context.Context, p *tourneyauth.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// RequestContext copies the caller's IP and User-Agent into the request
// context so the engine can snapshot and check session fingerprints. It must
// run before any middleware or handler that touches the engine.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := tourneyauth.WithClientIP(r.Context(), ClientIP(r))
		ctx = tourneyauth.WithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Guard resolves the session cookie into a principal and stores it in the
// request context. Requests without a valid session are rejected with a bare
// 401; JSON error shaping is the HTTP layer's job.
func Guard(engine *tourneyauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			sid := SessionID(r)
			if sid == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			p, err := engine.CurrentUser(r.Context(), sid)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// SessionID extracts the session id cookie value, or "" when absent.
func SessionID(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// ClientIP resolves the originating address: the first X-Forwarded-For hop
// when a proxy set one, otherwise the connection's remote address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := fwd
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			first = fwd[:idx]
		}
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
