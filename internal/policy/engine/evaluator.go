// Package engine evaluates organization-scoped authorization policy with OPA
// Rego. The role enumeration is closed, but which roles may perform which
// actions is policy, kept out of code so deployments can override it.
package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Actions checked against the org-access policy.
const (
	ActionSwitchOrganization = "organization.switch"
	ActionManageMembers      = "members.manage"
	ActionRevokeAllSessions  = "sessions.revoke_all"
)

const policyQuery = "data.authcore.org_access.allow"

// defaultPolicy encodes the stock role/action matrix: any member may make an
// org their active one; owners and admins manage members; only owners may
// revoke every session of a user.
const defaultPolicy = `package authcore.org_access

default allow = false

allow if {
	input.action == "organization.switch"
	input.role != ""
}

allow if {
	input.action == "members.manage"
	input.role == "owner"
}

allow if {
	input.action == "members.manage"
	input.role == "admin"
}

allow if {
	input.action == "sessions.revoke_all"
	input.role == "owner"
}
`

// Evaluator answers role/action authorization questions against a compiled
// Rego policy.
type Evaluator struct {
	query rego.PreparedEvalQuery
}

// New compiles policySource and returns an Evaluator. Empty policySource
// uses the default policy. Compilation errors surface at construction, not
// per request.
func New(ctx context.Context, policySource string) (*Evaluator, error) {
	if policySource == "" {
		policySource = defaultPolicy
	}
	query, err := rego.New(
		rego.Query(policyQuery),
		rego.Module("org_access.rego", policySource),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile org-access policy: %w", err)
	}
	return &Evaluator{query: query}, nil
}

// Allow reports whether a user holding role may perform action. An unknown
// role or action denies; the policy never defaults to yes.
func (e *Evaluator) Allow(ctx context.Context, role, action string) (bool, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"role":   role,
		"action": action,
	}))
	if err != nil {
		return false, fmt.Errorf("evaluate org-access policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := results[0].Expressions[0].Value.(bool)
	return ok && allowed, nil
}
