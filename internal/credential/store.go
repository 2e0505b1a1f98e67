// Package credential owns password registration and verification. Hashing
// happens only here; other packages see users, never hashes.
package credential

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"saas-auth-core/internal/credential/domain"
	"saas-auth-core/internal/platform/apperror"
	"saas-auth-core/internal/security"
	userdomain "saas-auth-core/internal/user/domain"
)

// UserRepo is the minimal user repository needed by the store.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	SetEmailVerified(ctx context.Context, id string, at time.Time) error
}

// CredentialRepo is the minimal credential repository needed by the store.
type CredentialRepo interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Credential, error)
	CreateUserWithCredential(ctx context.Context, u *userdomain.User, c *domain.Credential) error
}

// Store registers identities and verifies passwords.
type Store struct {
	users          UserRepo
	creds          CredentialRepo
	hasher         *security.Hasher
	minPasswordLen int
}

// NewStore returns a Store enforcing the given minimum password length
// (values below 8 are raised to 8).
func NewStore(users UserRepo, creds CredentialRepo, hasher *security.Hasher, minPasswordLen int) *Store {
	if minPasswordLen < 8 {
		minPasswordLen = 8
	}
	return &Store{users: users, creds: creds, hasher: hasher, minPasswordLen: minPasswordLen}
}

// NormalizeEmail lowercases and trims an email so lookups and uniqueness
// checks are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Register creates a user with the given email and password as a single
// atomic write. Fails with a validation error for a malformed email or a
// password below the minimum length, and a conflict error when the email is
// already registered.
func (s *Store) Register(ctx context.Context, name, email, password string) (*userdomain.User, error) {
	email = NormalizeEmail(email)
	if email == "" || !emailPattern.MatchString(email) {
		return nil, apperror.Validation("invalid email format")
	}
	if len(password) < s.minPasswordLen {
		return nil, apperror.Validation(fmt.Sprintf("password must be at least %d characters", s.minPasswordLen))
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("email already registered")
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, apperror.Internal("hash password", err)
	}
	now := time.Now().UTC()
	u := &userdomain.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Status:    userdomain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Validate(); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	c := &domain.Credential{
		ID:           uuid.New().String(),
		UserID:       u.ID,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// The uniqueness check above races with concurrent registrations; the
	// repository's unique constraint is the authoritative arbiter.
	if err := s.creds.CreateUserWithCredential(ctx, u, c); err != nil {
		return nil, err
	}
	return u, nil
}

// Verify checks email/password and returns the user on success. All failure
// paths — unknown email, disabled user, missing credential, wrong password —
// return the same authentication error, and the unknown-account paths burn a
// dummy hash comparison so latency does not reveal whether the account
// exists. Read-only.
func (s *Store) Verify(ctx context.Context, email, password string) (*userdomain.User, error) {
	email = NormalizeEmail(email)
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Status != userdomain.UserStatusActive {
		_ = s.hasher.DummyCompare([]byte(password))
		return nil, apperror.Authentication("invalid credentials")
	}
	c, err := s.creds.GetByUserID(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		_ = s.hasher.DummyCompare([]byte(password))
		return nil, apperror.Authentication("invalid credentials")
	}
	if err := s.hasher.Compare(c.PasswordHash, []byte(password)); err != nil {
		if errors.Is(err, security.ErrInvalidHash) {
			return nil, apperror.Internal("stored credential is unreadable", err)
		}
		return nil, apperror.Authentication("invalid credentials")
	}
	return u, nil
}

// SetEmailVerified marks the user's email as verified.
func (s *Store) SetEmailVerified(ctx context.Context, userID string) error {
	return s.users.SetEmailVerified(ctx, userID, time.Now().UTC())
}
