package repository

import (
	"context"

	"saas-auth-core/internal/credential/domain"
	userdomain "saas-auth-core/internal/user/domain"
)

// Repository defines persistence for credentials. Registration is a single
// atomic write: the user row and its credential row commit together or not
// at all.
type Repository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Credential, error)
	CreateUserWithCredential(ctx context.Context, u *userdomain.User, c *domain.Credential) error
}
