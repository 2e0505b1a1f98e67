package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"saas-auth-core/internal/db"
	"saas-auth-core/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByTokenHash returns the session for the token hash, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	var (
		s        domain.Session
		orgID    sql.NullString
		lastSeen sql.NullTime
		revoked  sql.NullTime
		ip       sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, token_hash, user_id, org_id, expires_at, last_seen_at, revoked_at, ip_address, created_at
		 FROM sessions WHERE token_hash = $1`, tokenHash).
		Scan(&s.ID, &s.TokenHash, &s.UserID, &orgID, &s.ExpiresAt, &lastSeen, &revoked, &ip, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, db.WrapError(err)
	}
	s.OrgID = orgID.String
	s.IPAddress = ip.String
	if lastSeen.Valid {
		s.LastSeenAt = &lastSeen.Time
	}
	if revoked.Valid {
		s.RevokedAt = &revoked.Time
	}
	return &s, nil
}

// Create persists the session. The session must have ID and TokenHash set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, token_hash, user_id, org_id, expires_at, last_seen_at, revoked_at, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.TokenHash, s.UserID, nullString(s.OrgID), s.ExpiresAt,
		nullTime(s.LastSeenAt), nullTime(s.RevokedAt), nullString(s.IPAddress), s.CreatedAt)
	return db.WrapError(err)
}

// ExtendExpiry moves expiry forward with a conditional single-row update.
// The `expires_at < $2` guard makes concurrent refreshes race-safe: the
// stored expiry is always the max of all attempted values.
func (r *PostgresRepository) ExtendExpiry(ctx context.Context, id string, expiresAt, lastSeenAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET expires_at = $2, last_seen_at = $3
		 WHERE id = $1 AND revoked_at IS NULL AND expires_at < $2`,
		id, expiresAt, lastSeenAt)
	if err != nil {
		return false, db.WrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, db.WrapError(err)
	}
	return n > 0, nil
}

// UpdateActiveOrg sets the session's active organization.
func (r *PostgresRepository) UpdateActiveOrg(ctx context.Context, id, orgID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET org_id = $2 WHERE id = $1 AND revoked_at IS NULL`,
		id, nullString(orgID))
	return db.WrapError(err)
}

// Revoke marks the session with the given id as revoked. The revoked_at
// guard keeps the first revocation timestamp on repeat calls.
func (r *PostgresRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`,
		id, at)
	return db.WrapError(err)
}

// RevokeAllByUser revokes every non-revoked session for the user.
func (r *PostgresRepository) RevokeAllByUser(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`,
		userID, at)
	return db.WrapError(err)
}

// DeleteExpiredBefore purges sessions whose expiry predates the cutoff and
// returns the number of rows removed.
func (r *PostgresRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, db.WrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, db.WrapError(err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
