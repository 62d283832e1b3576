package session

import (
	"net/http"

	"adminconsole/pkg/constraints"
)

// Cookie mirrors the session token to the operator's browser.
func Cookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     constraints.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(constraints.TokenMaxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
}

// ClearedCookie tells the browser to drop the mirrored token.
func ClearedCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     constraints.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
}
