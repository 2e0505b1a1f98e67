package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"saas-auth-core/internal/platform/apperror"
	"saas-auth-core/internal/security"
	"saas-auth-core/internal/session/domain"
)

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string]*domain.Session // keyed by token hash
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{m: make(map[string]*domain.Session)}
}

func (r *memSessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[tokenHash]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.m[s.TokenHash] = &cp
	return nil
}

func (r *memSessionRepo) find(id string) *domain.Session {
	for _, s := range r.m {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (r *memSessionRepo) ExtendExpiry(ctx context.Context, id string, expiresAt, lastSeenAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.find(id)
	if s == nil || s.RevokedAt != nil || !expiresAt.After(s.ExpiresAt) {
		return false, nil
	}
	s.ExpiresAt = expiresAt
	seen := lastSeenAt
	s.LastSeenAt = &seen
	return true, nil
}

func (r *memSessionRepo) UpdateActiveOrg(ctx context.Context, id, orgID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.find(id); s != nil && s.RevokedAt == nil {
		s.OrgID = orgID
	}
	return nil
}

func (r *memSessionRepo) Revoke(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.find(id); s != nil && s.RevokedAt == nil {
		t := at
		s.RevokedAt = &t
	}
	return nil
}

func (r *memSessionRepo) RevokeAllByUser(ctx context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.m {
		if s.UserID == userID && s.RevokedAt == nil {
			t := at
			s.RevokedAt = &t
		}
	}
	return nil
}

func (r *memSessionRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, s := range r.m {
		if s.ExpiresAt.Before(cutoff) {
			delete(r.m, k)
			n++
		}
	}
	return n, nil
}

type memAccess struct {
	allowed map[string]bool // userID + "/" + orgID
}

func (a *memAccess) HasAccess(ctx context.Context, userID, orgID string) (bool, error) {
	return a.allowed[userID+"/"+orgID], nil
}

func testManager(repo *memSessionRepo, access AccessChecker) *Manager {
	if access == nil {
		access = &memAccess{}
	}
	return NewManager(repo, access, 30*24*time.Hour, 0.5)
}

func TestManager_IssueAndValidate(t *testing.T) {
	repo := newMemSessionRepo()
	m := testManager(repo, nil)
	ctx := context.Background()

	issued, token, err := m.Issue(ctx, "user-1", "", "10.0.0.1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("Issue returned empty token")
	}

	got, err := m.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", got.UserID)
	}
	if got.OrgID != "" {
		t.Errorf("OrgID = %q, want empty until explicitly switched", got.OrgID)
	}
	if got.ID != issued.ID {
		t.Errorf("session ID changed across validate: %q vs %q", got.ID, issued.ID)
	}
}

func TestManager_ValidateUnknownToken(t *testing.T) {
	m := testManager(newMemSessionRepo(), nil)
	if _, err := m.Validate(context.Background(), "no-such-token"); err != ErrNotFound {
		t.Fatalf("Validate unknown token: got %v, want ErrNotFound", err)
	}
}

func TestManager_ValidateExpired(t *testing.T) {
	repo := newMemSessionRepo()
	m := testManager(repo, nil)
	ctx := context.Background()
	_, token, _ := m.Issue(ctx, "user-1", "", "")

	// Jump past expiry.
	m.now = func() time.Time { return time.Now().UTC().Add(31 * 24 * time.Hour) }
	if _, err := m.Validate(ctx, token); err != ErrExpired {
		t.Fatalf("Validate expired: got %v, want ErrExpired", err)
	}

	// Expiry is terminal: even back at the original clock the session was
	// lazily revoked, so no later validate succeeds.
	m.now = func() time.Time { return time.Now().UTC() }
	if _, err := m.Validate(ctx, token); err != ErrRevoked && err != ErrExpired {
		t.Fatalf("Validate after expiry: got %v, want terminal failure", err)
	}
}

func TestManager_RevokeIdempotent(t *testing.T) {
	repo := newMemSessionRepo()
	m := testManager(repo, nil)
	ctx := context.Background()
	_, token, _ := m.Issue(ctx, "user-1", "", "")

	if err := m.Revoke(ctx, token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	first := *repo.find(findID(t, repo, token)).RevokedAt
	if err := m.Revoke(ctx, token); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}
	if got := *repo.find(findID(t, repo, token)).RevokedAt; !got.Equal(first) {
		t.Errorf("second Revoke changed revoked_at: %v vs %v", got, first)
	}
	if err := m.Revoke(ctx, "nonexistent-token"); err != nil {
		t.Fatalf("Revoke nonexistent token: %v", err)
	}
	if _, err := m.Validate(ctx, token); err != ErrRevoked {
		t.Fatalf("Validate revoked: got %v, want ErrRevoked", err)
	}
}

func findID(t *testing.T, repo *memSessionRepo, token string) string {
	t.Helper()
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if s, ok := repo.m[security.HashToken(token)]; ok {
		return s.ID
	}
	t.Fatal("no session stored for token")
	return ""
}

func TestManager_SlidingRefresh(t *testing.T) {
	repo := newMemSessionRepo()
	m := testManager(repo, nil)
	ctx := context.Background()
	issued, token, _ := m.Issue(ctx, "user-1", "", "")

	// Before the threshold no refresh happens.
	s, err := m.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !s.ExpiresAt.Equal(issued.ExpiresAt) {
		t.Error("expiry should be unchanged before the refresh threshold")
	}

	// Past half the max age the expiry slides forward; the token does not change.
	base := time.Now().UTC()
	m.now = func() time.Time { return base.Add(16 * 24 * time.Hour) }
	s, err = m.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate past threshold: %v", err)
	}
	if !s.ExpiresAt.After(issued.ExpiresAt) {
		t.Errorf("expiry should have been extended: %v vs %v", s.ExpiresAt, issued.ExpiresAt)
	}
	if s.LastSeenAt == nil {
		t.Error("last-seen should be set after refresh")
	}
	if s.TokenHash != issued.TokenHash {
		t.Error("refresh must not change the token")
	}
}

func TestManager_FixedExpiryWhenRefreshDisabled(t *testing.T) {
	repo := newMemSessionRepo()
	m := NewManager(repo, &memAccess{}, 30*24*time.Hour, 0)
	ctx := context.Background()
	issued, token, _ := m.Issue(ctx, "user-1", "", "")

	base := time.Now().UTC()
	m.now = func() time.Time { return base.Add(29 * 24 * time.Hour) }
	s, err := m.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !s.ExpiresAt.Equal(issued.ExpiresAt) {
		t.Error("strict fixed-expiry policy must never extend expiry")
	}
}

// TestManager_RefreshMonotonic races concurrent validates and checks the
// final stored expiry is the max of all individually computed ones.
func TestManager_RefreshMonotonic(t *testing.T) {
	repo := newMemSessionRepo()
	m := testManager(repo, nil)
	ctx := context.Background()
	_, token, _ := m.Issue(ctx, "user-1", "", "")

	base := time.Now().UTC()
	var mu sync.Mutex
	offset := 16 * 24 * time.Hour
	m.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		offset += time.Millisecond
		return base.Add(offset)
	}

	var wg sync.WaitGroup
	var maxSeen struct {
		sync.Mutex
		t time.Time
	}
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Validate(ctx, token)
			if err != nil {
				t.Errorf("Validate: %v", err)
				return
			}
			maxSeen.Lock()
			if s.ExpiresAt.After(maxSeen.t) {
				maxSeen.t = s.ExpiresAt
			}
			maxSeen.Unlock()
		}()
	}
	wg.Wait()

	stored := repo.find(findID(t, repo, token)).ExpiresAt
	if stored.Before(maxSeen.t) {
		t.Errorf("stored expiry %v went backward from observed max %v", stored, maxSeen.t)
	}
}

func TestManager_SwitchOrganization(t *testing.T) {
	repo := newMemSessionRepo()
	access := &memAccess{allowed: map[string]bool{"u1/orgA": true}}
	m := testManager(repo, access)
	ctx := context.Background()
	_, token, _ := m.Issue(ctx, "u1", "", "")

	s, err := m.SwitchOrganization(ctx, token, "orgA")
	if err != nil {
		t.Fatalf("SwitchOrganization: %v", err)
	}
	if s.OrgID != "orgA" {
		t.Errorf("OrgID = %q, want orgA", s.OrgID)
	}

	if _, err := m.SwitchOrganization(ctx, token, "orgB"); err != ErrNotMember {
		t.Fatalf("SwitchOrganization without membership: got %v, want ErrNotMember", err)
	}
	if got := repo.find(findID(t, repo, token)).OrgID; got != "orgA" {
		t.Errorf("denied switch must not change active org, got %q", got)
	}
}

func TestManager_SwitchOrganizationRevokedSession(t *testing.T) {
	repo := newMemSessionRepo()
	access := &memAccess{allowed: map[string]bool{"u1/orgA": true}}
	m := testManager(repo, access)
	ctx := context.Background()
	_, token, _ := m.Issue(ctx, "u1", "", "")
	_ = m.Revoke(ctx, token)
	if _, err := m.SwitchOrganization(ctx, token, "orgA"); !apperror.IsKind(err, apperror.KindAuthentication) {
		t.Fatalf("SwitchOrganization on revoked session: got %v, want authentication", err)
	}
}

func TestManager_RevokeAllForUser(t *testing.T) {
	repo := newMemSessionRepo()
	m := testManager(repo, nil)
	ctx := context.Background()
	_, t1, _ := m.Issue(ctx, "u1", "", "")
	_, t2, _ := m.Issue(ctx, "u1", "", "")
	_, t3, _ := m.Issue(ctx, "u2", "", "")

	if err := m.RevokeAllForUser(ctx, "u1"); err != nil {
		t.Fatalf("RevokeAllForUser: %v", err)
	}
	if _, err := m.Validate(ctx, t1); err != ErrRevoked {
		t.Errorf("first u1 session: got %v, want ErrRevoked", err)
	}
	if _, err := m.Validate(ctx, t2); err != ErrRevoked {
		t.Errorf("second u1 session: got %v, want ErrRevoked", err)
	}
	if _, err := m.Validate(ctx, t3); err != nil {
		t.Errorf("u2 session should survive: %v", err)
	}
}

func TestManager_Reap(t *testing.T) {
	repo := newMemSessionRepo()
	m := testManager(repo, nil)
	ctx := context.Background()
	_, expired, _ := m.Issue(ctx, "u1", "", "")
	repo.mu.Lock()
	for _, s := range repo.m {
		s.ExpiresAt = time.Now().UTC().Add(-48 * time.Hour)
	}
	repo.mu.Unlock()
	_, live, _ := m.Issue(ctx, "u2", "", "")

	n, err := m.Reap(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Reap: %v", err)
	}
	if n != 1 {
		t.Errorf("Reap removed %d sessions, want 1", n)
	}
	if _, err := m.Validate(ctx, expired); err != ErrNotFound {
		t.Errorf("reaped session: got %v, want ErrNotFound", err)
	}
	if _, err := m.Validate(ctx, live); err != nil {
		t.Errorf("live session should survive reap: %v", err)
	}
}
