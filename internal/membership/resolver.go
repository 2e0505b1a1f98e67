// Package membership resolves which organizations a user belongs to and with
// what role. The resolver is the single answer to "is this session's user
// scoped to this org" — it never mutates and never defaults to yes.
package membership

import (
	"context"

	"saas-auth-core/internal/membership/domain"
	"saas-auth-core/internal/membership/repository"
)

// Resolver answers membership queries. Pure reads.
type Resolver struct {
	repo repository.Repository
}

// NewResolver returns a Resolver over the given repository.
func NewResolver(repo repository.Repository) *Resolver {
	return &Resolver{repo: repo}
}

// MembershipsFor returns every membership of the user. A user may belong to
// zero or more organizations.
func (r *Resolver) MembershipsFor(ctx context.Context, userID string) ([]*domain.Membership, error) {
	return r.repo.ListByUser(ctx, userID)
}

// HasAccess reports whether the user has any membership in the org.
func (r *Resolver) HasAccess(ctx context.Context, userID, orgID string) (bool, error) {
	m, err := r.repo.GetByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

// RoleFor returns the user's role in the org, or "" when the user is not a
// member.
func (r *Resolver) RoleFor(ctx context.Context, userID, orgID string) (domain.Role, error) {
	m, err := r.repo.GetByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", nil
	}
	return m.Role, nil
}
