package domain

import "time"

// AuditLog represents one auth audit event.
type AuditLog struct {
	ID        string
	OrgID     string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}

// Audit actions recorded by the auth core. The precise session-failure
// reason (expired vs revoked vs unknown) lives only here; the public error
// surface never differentiates them.
const (
	ActionSignUp          = "signup"
	ActionLoginSuccess    = "login_success"
	ActionLoginFailure    = "login_failure"
	ActionLogout          = "logout"
	ActionSessionDenied   = "session_denied"
	ActionSessionRevoked  = "session_revoked"
	ActionOrgSwitch       = "org_switch"
	ActionOrgSwitchDenied = "org_switch_denied"
	ActionEmailVerified   = "email_verified"
)
