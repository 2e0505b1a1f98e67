// Package rbac provides guard helpers for RPC handlers: they read the
// authenticated identity from context, resolve the caller's membership, and
// translate denials to gRPC status codes.
package rbac

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"saas-auth-core/internal/membership/domain"
	"saas-auth-core/internal/server/interceptors"
)

// RoleResolver returns a user's role in an org, or "" when the user is not
// a member. The membership resolver implements this.
type RoleResolver interface {
	RoleFor(ctx context.Context, userID, orgID string) (domain.Role, error)
}

// PolicyEvaluator decides whether a role may perform an action. The policy
// engine implements this.
type PolicyEvaluator interface {
	Allow(ctx context.Context, role, action string) (bool, error)
}

// RequireOrgMember ensures the caller is authenticated and is a member of
// the context org (any role). Returns (orgID, userID, nil) on success;
// returns a gRPC error (Unauthenticated or PermissionDenied) on failure.
func RequireOrgMember(ctx context.Context, roles RoleResolver) (orgID, userID string, err error) {
	orgID, userID, role, err := callerRole(ctx, roles)
	if err != nil {
		return "", "", err
	}
	if role == "" {
		return "", "", status.Error(codes.PermissionDenied, "not a member of this organization")
	}
	return orgID, userID, nil
}

// RequireOrgAction ensures the caller is a member of the context org whose
// role the policy allows to perform action. Returns (orgID, userID, nil) on
// success; returns a gRPC error on failure.
func RequireOrgAction(ctx context.Context, roles RoleResolver, policy PolicyEvaluator, action string) (orgID, userID string, err error) {
	orgID, userID, role, err := callerRole(ctx, roles)
	if err != nil {
		return "", "", err
	}
	if role == "" {
		return "", "", status.Error(codes.PermissionDenied, "not a member of this organization")
	}
	allowed, err := policy.Allow(ctx, string(role), action)
	if err != nil {
		return "", "", status.Error(codes.Internal, "failed to evaluate access policy")
	}
	if !allowed {
		return "", "", status.Error(codes.PermissionDenied, "role does not permit this action")
	}
	return orgID, userID, nil
}

func callerRole(ctx context.Context, roles RoleResolver) (orgID, userID string, role domain.Role, err error) {
	orgID, okOrg := interceptors.GetOrgID(ctx)
	userID, okUser := interceptors.GetUserID(ctx)
	if !okOrg || orgID == "" || !okUser || userID == "" {
		return "", "", "", status.Error(codes.Unauthenticated, "org and user context required")
	}
	role, err = roles.RoleFor(ctx, userID, orgID)
	if err != nil {
		return "", "", "", status.Error(codes.Internal, "failed to resolve membership")
	}
	return orgID, userID, role, nil
}
