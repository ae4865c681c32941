package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	tourneyauth "github.com/karanshukla/totalwarhammer-tournament-app-sub000"
	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/middleware"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	engine     *tourneyauth.Engine
	production bool
}

// Option configures the API instance.
type Option func(*API)

// WithProductionMode hardens cookie attributes for deployment behind TLS:
// Secure is set and SameSite tightens from Lax to Strict.
func WithProductionMode(on bool) Option {
	return func(a *API) {
		a.production = on
	}
}

// New creates a new API instance around a built engine.
func New(engine *tourneyauth.Engine, opts ...Option) *API {
	a := &API{engine: engine}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Router returns a chi.Router with all auth routes mounted. The fingerprint
// middleware runs first so every handler sees the caller's IP and user agent
// in the request context.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestContext)
	r.Use(a.CSRFMiddleware)

	r.Post("/auth/login", a.Login)
	r.Post("/auth/token", a.Token)
	r.Post("/auth/logout", a.Logout)
	r.Post("/auth/guest", a.GuestLogin)
	r.Post("/auth/register", a.Register)
	r.Get("/auth/csrf-token", a.CSRFToken)

	r.Group(func(r chi.Router) {
		r.Use(a.requireSession)
		r.Get("/auth/me", a.Me)
		r.Put("/auth/profile", a.UpdateProfile)
	})

	return r
}

// requireSession is the JSON-shaped twin of [middleware.Guard]: it resolves
// the cookie principal the same way but answers in the response envelope.
func (a *API) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := middleware.SessionID(r)
		if sid == "" {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		p, err := a.engine.CurrentUser(r.Context(), sid)
		if err != nil {
			mapError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(middleware.WithPrincipal(r.Context(), p)))
	})
}
