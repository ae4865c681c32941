package httpapi

import (
	"net/http"
	"time"

	"github.com/karanshukla/totalwarhammer-tournament-app-sub000/middleware"
)

// writeSessionCookie installs the opaque session id. HttpOnly always; Secure
// and SameSite=Strict only in production so local development over plain HTTP
// keeps working.
func (a *API) writeSessionCookie(w http.ResponseWriter, sessionID string, expiresAt int64) {
	maxAge := int(time.Until(time.Unix(expiresAt, 0)) / time.Second)
	if maxAge < 0 {
		maxAge = 0
	}

	sameSite := http.SameSiteLaxMode
	if a.production {
		sameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.production,
		SameSite: sameSite,
		MaxAge:   maxAge,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter) {
	sameSite := http.SameSiteLaxMode
	if a.production {
		sameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   a.production,
		SameSite: sameSite,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}
