package repository

import (
	"context"
	"database/sql"
	"errors"

	"saas-auth-core/internal/db"
	"saas-auth-core/internal/organization/domain"
	"saas-auth-core/internal/platform/apperror"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an organization repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the organization for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Org, error) {
	return r.get(ctx, `SELECT id, name, slug, status, created_at FROM organizations WHERE id = $1`, id)
}

// GetBySlug returns the organization for the slug, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*domain.Org, error) {
	return r.get(ctx, `SELECT id, name, slug, status, created_at FROM organizations WHERE slug = $1`, slug)
}

// Create persists the organization. A duplicate slug surfaces as a conflict error.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Org) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name, slug, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		o.ID, o.Name, o.Slug, string(o.Status), o.CreatedAt)
	if db.IsUniqueViolation(err, "organizations_slug_key") {
		return apperror.Conflict("organization slug already in use")
	}
	return db.WrapError(err)
}

func (r *PostgresRepository) get(ctx context.Context, query, arg string) (*domain.Org, error) {
	var o domain.Org
	var status string
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&o.ID, &o.Name, &o.Slug, &status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, db.WrapError(err)
	}
	o.Status = domain.OrgStatus(status)
	return &o, nil
}
