package audit

import (
	"context"
	"sync"
	"testing"

	"saas-auth-core/internal/audit/domain"
)

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (r *memAuditRepo) Create(ctx context.Context, a *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, a)
	return nil
}

func (r *memAuditRepo) ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AuditLog
	for _, a := range r.entries {
		if a.OrgID == orgID {
			out = append(out, a)
		}
	}
	return out, nil
}

func TestLogger_LogEvent(t *testing.T) {
	repo := &memAuditRepo{}
	l := NewLogger(repo)
	ctx := WithIP(context.Background(), "10.0.0.9")

	l.LogEvent(ctx, "org-1", "user-1", domain.ActionLoginSuccess, "session", "")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.OrgID != "org-1" || e.UserID != "user-1" || e.Action != domain.ActionLoginSuccess {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.IP != "10.0.0.9" {
		t.Errorf("IP = %q, want 10.0.0.9", e.IP)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Error("entry should have an ID and timestamp")
	}
}

func TestLogger_SentinelOrg(t *testing.T) {
	repo := &memAuditRepo{}
	l := NewLogger(repo)

	l.LogEvent(context.Background(), "", "", domain.ActionLoginFailure, "session", "unknown email")

	if got := repo.entries[0].OrgID; got != SentinelOrgID {
		t.Errorf("OrgID = %q, want %q", got, SentinelOrgID)
	}
	if got := repo.entries[0].IP; got != "unknown" {
		t.Errorf("IP = %q, want unknown", got)
	}
}

func TestLogger_NilSafe(t *testing.T) {
	var l *Logger
	// Must not panic.
	l.LogEvent(context.Background(), "o", "u", domain.ActionLogout, "session", "")
	NewLogger(nil).LogEvent(context.Background(), "o", "u", domain.ActionLogout, "session", "")
}
