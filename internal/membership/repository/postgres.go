package repository

import (
	"context"
	"database/sql"
	"errors"

	"saas-auth-core/internal/db"
	"saas-auth-core/internal/membership/domain"
	"saas-auth-core/internal/platform/apperror"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a membership repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByUserAndOrg returns the membership for the given user and org, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error) {
	var m domain.Membership
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, org_id, role, created_at
		 FROM memberships WHERE user_id = $1 AND org_id = $2`, userID, orgID).
		Scan(&m.ID, &m.UserID, &m.OrgID, &role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, db.WrapError(err)
	}
	m.Role = domain.Role(role)
	return &m, nil
}

// ListByUser returns all memberships for the given user. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, org_id, role, created_at
		 FROM memberships WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, db.WrapError(err)
	}
	defer rows.Close()

	var out []*domain.Membership
	for rows.Next() {
		var m domain.Membership
		var role string
		if err := rows.Scan(&m.ID, &m.UserID, &m.OrgID, &role, &m.CreatedAt); err != nil {
			return nil, db.WrapError(err)
		}
		m.Role = domain.Role(role)
		out = append(out, &m)
	}
	return out, db.WrapError(rows.Err())
}

// Create persists the membership. A second row for the same (user, org) pair
// surfaces as a conflict error.
func (r *PostgresRepository) Create(ctx context.Context, m *domain.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO memberships (id, user_id, org_id, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.UserID, m.OrgID, string(m.Role), m.CreatedAt)
	if db.IsUniqueViolation(err, "memberships_user_org_key") {
		return apperror.Conflict("user is already a member of the organization")
	}
	return db.WrapError(err)
}
