// Package transport holds helpers for carrying the session token over HTTP.
// The auth core itself never reads cookies; HTTP front ends use these to
// keep the token out of script reach.
package transport

import (
	"net/http"
	"time"
)

// CookieConfig describes how the session cookie is built.
type CookieConfig struct {
	// Name of the cookie; defaults to "auth_session" when empty.
	Name string
	// Secure marks the cookie HTTPS-only.
	Secure bool
	// Domain optionally scopes the cookie.
	Domain string
}

const defaultCookieName = "auth_session"

func (c CookieConfig) name() string {
	if c.Name == "" {
		return defaultCookieName
	}
	return c.Name
}

// SessionCookie builds the HttpOnly cookie carrying the raw session token.
// maxAge should match the session's remaining lifetime.
func SessionCookie(cfg CookieConfig, token string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.name(),
		Value:    token,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie builds the expired cookie that removes the session
// cookie on sign-out.
func ClearSessionCookie(cfg CookieConfig) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.name(),
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
