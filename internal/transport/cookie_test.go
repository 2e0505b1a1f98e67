package transport

import (
	"net/http"
	"testing"
	"time"
)

func TestSessionCookie(t *testing.T) {
	c := SessionCookie(CookieConfig{Secure: true}, "tok-abc", 30*time.Minute)
	if c.Name != "auth_session" {
		t.Errorf("Name = %q, want auth_session", c.Name)
	}
	if c.Value != "tok-abc" {
		t.Errorf("Value = %q", c.Value)
	}
	if c.MaxAge != 1800 {
		t.Errorf("MaxAge = %d, want 1800", c.MaxAge)
	}
	if !c.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}
	if !c.Secure {
		t.Error("cookie must honor Secure config")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
}

func TestSessionCookie_CustomName(t *testing.T) {
	c := SessionCookie(CookieConfig{Name: "sid", Domain: "example.com"}, "tok", time.Hour)
	if c.Name != "sid" || c.Domain != "example.com" {
		t.Errorf("Name/Domain = %q/%q", c.Name, c.Domain)
	}
}

func TestClearSessionCookie(t *testing.T) {
	c := ClearSessionCookie(CookieConfig{})
	if c.Name != "auth_session" {
		t.Errorf("Name = %q", c.Name)
	}
	if c.Value != "" || c.MaxAge != -1 {
		t.Errorf("clear cookie should be empty and expired, got %q/%d", c.Value, c.MaxAge)
	}
	if !c.HttpOnly {
		t.Error("clear cookie must stay HttpOnly")
	}
}
