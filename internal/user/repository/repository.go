package repository

import (
	"context"
	"time"

	"saas-auth-core/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	SetEmailVerified(ctx context.Context, id string, at time.Time) error
}
