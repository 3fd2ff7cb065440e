package auth

import (
	"net/http"
	"strings"
	"time"
)

// Cookie names for browser clients. API clients use the Authorization header
// instead and never see these.
const (
	AccessCookieName  = "gavel_access"
	RefreshCookieName = "gavel_refresh"
)

// CookieWriter issues and clears the auth cookies.
type CookieWriter struct {
	Secure    bool
	AccessTTL time.Duration
}

// Set writes both token cookies. HttpOnly keeps them away from scripts;
// SameSite=Lax still allows the OAuth callback redirect to carry them.
func (c CookieWriter) Set(w http.ResponseWriter, pair *TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookieName,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(c.AccessTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires both cookies.
func (c CookieWriter) Clear(w http.ResponseWriter) {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// ExtractAccessToken pulls the access token from the request: Authorization
// header first, cookie as fallback. Returns "" when neither is present.
func ExtractAccessToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, found := strings.CutPrefix(header, "Bearer "); found {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie(AccessCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// ExtractRefreshToken pulls the refresh token from the cookie.
func ExtractRefreshToken(r *http.Request) string {
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
