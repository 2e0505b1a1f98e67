// Package session issues, validates, refreshes, and revokes opaque session
// tokens. The Manager is the sole writer of session state transitions:
// Created → Active ⇄ Refreshed → Expired | Revoked, with Expired and Revoked
// terminal.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"saas-auth-core/internal/platform/apperror"
	"saas-auth-core/internal/security"
	"saas-auth-core/internal/session/domain"
	"saas-auth-core/internal/session/repository"
)

// Sentinel errors for the session manager; the auth service collapses them
// for external callers and keeps the distinction for audit logging only.
var (
	ErrNotFound  = apperror.Authentication("session not found")
	ErrExpired   = apperror.Authentication("session expired")
	ErrRevoked   = apperror.Authentication("session revoked")
	ErrNotMember = apperror.Authorization("user is not a member of the organization")
)

// AccessChecker answers whether a user belongs to an organization. Satisfied
// by the membership resolver.
type AccessChecker interface {
	HasAccess(ctx context.Context, userID, orgID string) (bool, error)
}

// Manager owns session lifecycle. maxAge bounds session lifetime;
// refreshFraction (0..1] enables sliding-window refresh once that fraction of
// maxAge has elapsed since the session was last seen. refreshFraction 0 means
// strict fixed expiry.
type Manager struct {
	repo            repository.Repository
	access          AccessChecker
	maxAge          time.Duration
	refreshFraction float64
	now             func() time.Time
}

// NewManager returns a Manager with the given repository and access checker.
func NewManager(repo repository.Repository, access AccessChecker, maxAge time.Duration, refreshFraction float64) *Manager {
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	if refreshFraction < 0 || refreshFraction > 1 {
		refreshFraction = 0.5
	}
	return &Manager{
		repo:            repo,
		access:          access,
		maxAge:          maxAge,
		refreshFraction: refreshFraction,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a session for the user and returns it with the raw token.
// The token is returned exactly once; only its hash is stored.
func (m *Manager) Issue(ctx context.Context, userID, orgID, ip string) (*domain.Session, string, error) {
	token, err := security.NewSessionToken()
	if err != nil {
		return nil, "", apperror.Internal("generate session token", err)
	}
	now := m.now()
	s := &domain.Session{
		ID:        uuid.New().String(),
		TokenHash: security.HashToken(token),
		UserID:    userID,
		OrgID:     orgID,
		ExpiresAt: now.Add(m.maxAge),
		IPAddress: ip,
		CreatedAt: now,
	}
	if err := m.repo.Create(ctx, s); err != nil {
		return nil, "", err
	}
	return s, token, nil
}

// Validate looks up the session by token and re-derives validity. Expired
// rows are lazily marked revoked (best-effort; correctness does not depend
// on the write landing). On success a sliding-window refresh may extend the
// expiry via a monotonic conditional update; the token value never changes.
func (m *Manager) Validate(ctx context.Context, token string) (*domain.Session, error) {
	s, err := m.repo.GetByTokenHash(ctx, security.HashToken(token))
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNotFound
	}
	if s.Revoked() {
		return nil, ErrRevoked
	}
	now := m.now()
	if s.ExpiredAt(now) {
		_ = m.repo.Revoke(ctx, s.ID, now)
		return nil, ErrExpired
	}
	m.maybeRefresh(ctx, s, now)
	return s, nil
}

// maybeRefresh extends the session when more than refreshFraction of maxAge
// has elapsed since it was last seen. A lost race leaves the stored (newer)
// expiry in place; expiry only ever moves forward.
func (m *Manager) maybeRefresh(ctx context.Context, s *domain.Session, now time.Time) {
	if m.refreshFraction == 0 {
		return
	}
	lastSeen := s.CreatedAt
	if s.LastSeenAt != nil {
		lastSeen = *s.LastSeenAt
	}
	threshold := time.Duration(float64(m.maxAge) * m.refreshFraction)
	if now.Sub(lastSeen) <= threshold {
		return
	}
	newExpiry := now.Add(m.maxAge)
	ok, err := m.repo.ExtendExpiry(ctx, s.ID, newExpiry, now)
	if err != nil || !ok {
		return
	}
	s.ExpiresAt = newExpiry
	seen := now
	s.LastSeenAt = &seen
}

// Revoke tears down the session for the token. Idempotent: revoking an
// already-revoked or nonexistent token is not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	s, err := m.repo.GetByTokenHash(ctx, security.HashToken(token))
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}
	return m.repo.Revoke(ctx, s.ID, m.now())
}

// RevokeAllForUser revokes every session belonging to the user.
func (m *Manager) RevokeAllForUser(ctx context.Context, userID string) error {
	return m.repo.RevokeAllByUser(ctx, userID, m.now())
}

// SwitchOrganization re-validates the session, checks membership, and sets
// the active organization. Fails with ErrNotMember when no membership row
// exists; never defaults to access.
func (m *Manager) SwitchOrganization(ctx context.Context, token, orgID string) (*domain.Session, error) {
	s, err := m.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	ok, err := m.access.HasAccess(ctx, s.UserID, orgID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}
	if err := m.repo.UpdateActiveOrg(ctx, s.ID, orgID); err != nil {
		return nil, err
	}
	s.OrgID = orgID
	return s, nil
}

// Reap purges sessions whose expiry predates cutoff. Hygiene only.
func (m *Manager) Reap(ctx context.Context, cutoff time.Time) (int64, error) {
	return m.repo.DeleteExpiredBefore(ctx, cutoff)
}
