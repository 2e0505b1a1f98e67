package repository

import (
	"context"
	"database/sql"
	"errors"

	"saas-auth-core/internal/credential/domain"
	"saas-auth-core/internal/db"
	"saas-auth-core/internal/platform/apperror"
	userdomain "saas-auth-core/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a credential repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByUserID returns the credential for the user, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*domain.Credential, error) {
	var c domain.Credential
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, password_hash, created_at, updated_at
		 FROM credentials WHERE user_id = $1`, userID).
		Scan(&c.ID, &c.UserID, &c.PasswordHash, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, db.WrapError(err)
	}
	return &c, nil
}

// CreateUserWithCredential inserts the user and its credential in one
// transaction. A duplicate email rolls back and surfaces as a conflict error.
func (r *PostgresRepository) CreateUserWithCredential(ctx context.Context, u *userdomain.User, c *domain.Credential) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return db.WrapError(err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, name, email_verified, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.Name, u.EmailVerified, string(u.Status), u.CreatedAt, u.UpdatedAt)
	if db.IsUniqueViolation(err, "users_email_key") {
		return apperror.Conflict("email already registered")
	}
	if err != nil {
		return db.WrapError(err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO credentials (id, user_id, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.UserID, c.PasswordHash, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return db.WrapError(err)
	}

	return db.WrapError(tx.Commit())
}
