package repository

import (
	"context"
	"time"

	"saas-auth-core/internal/session/domain"
)

// Repository defines persistence for sessions. Mutations are single-row
// atomic writes at the storage boundary; no application-level locking.
type Repository interface {
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	// ExtendExpiry conditionally moves the session's expiry forward and
	// records last-seen. The write applies only while the session is not
	// revoked and expiresAt is later than the stored value, so concurrent
	// refreshes can never move expiry backward. Returns whether the row
	// was updated.
	ExtendExpiry(ctx context.Context, id string, expiresAt, lastSeenAt time.Time) (bool, error)
	UpdateActiveOrg(ctx context.Context, id, orgID string) error
	// Revoke marks the session revoked. Idempotent: revoking a revoked or
	// missing session is not an error.
	Revoke(ctx context.Context, id string, at time.Time) error
	RevokeAllByUser(ctx context.Context, userID string, at time.Time) error
	// DeleteExpiredBefore purges rows whose expiry predates the cutoff.
	// Storage hygiene only; validity never depends on it.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
