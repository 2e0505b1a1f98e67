package domain

import "time"

// Session represents an authenticated session. Only the SHA-256 hash of the
// opaque token is stored; the raw token exists client-side only. Validity is
// re-derived from ExpiresAt/RevokedAt on every check, never cached.
type Session struct {
	ID         string
	TokenHash  string
	UserID     string
	OrgID      string // active organization; empty until explicitly switched
	ExpiresAt  time.Time
	LastSeenAt *time.Time // nil until first refresh
	RevokedAt  *time.Time // nil when not revoked
	IPAddress  string
	CreatedAt  time.Time
}

// Revoked reports whether the session has been revoked. Terminal.
func (s *Session) Revoked() bool { return s.RevokedAt != nil }

// ExpiredAt reports whether the session is past its expiry at the given time.
func (s *Session) ExpiredAt(now time.Time) bool { return now.After(s.ExpiresAt) }
