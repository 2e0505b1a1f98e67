// Package auth composes credentials, sessions, memberships, and policy into
// the authentication service callers talk to. Precise failure reasons stay
// inside: externally every session or login failure is the same
// authentication error, while the audit trail keeps the distinction.
package auth

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"saas-auth-core/internal/audit"
	"saas-auth-core/internal/audit/domain"
	"saas-auth-core/internal/credential"
	"saas-auth-core/internal/events"
	memdomain "saas-auth-core/internal/membership/domain"
	orgdomain "saas-auth-core/internal/organization/domain"
	"saas-auth-core/internal/platform/apperror"
	"saas-auth-core/internal/policy/engine"
	"saas-auth-core/internal/server/interceptors"
	sessiondomain "saas-auth-core/internal/session/domain"
	userdomain "saas-auth-core/internal/user/domain"
)

const instrumentationName = "saas-auth-core/internal/auth"

// CredentialStore registers identities and verifies passwords.
type CredentialStore interface {
	Register(ctx context.Context, name, email, password string) (*userdomain.User, error)
	Verify(ctx context.Context, email, password string) (*userdomain.User, error)
	SetEmailVerified(ctx context.Context, userID string) error
}

// SessionManager owns session lifecycle.
type SessionManager interface {
	Issue(ctx context.Context, userID, orgID, ip string) (*sessiondomain.Session, string, error)
	Validate(ctx context.Context, token string) (*sessiondomain.Session, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	SwitchOrganization(ctx context.Context, token, orgID string) (*sessiondomain.Session, error)
}

// MembershipResolver reads org memberships.
type MembershipResolver interface {
	MembershipsFor(ctx context.Context, userID string) ([]*memdomain.Membership, error)
	RoleFor(ctx context.Context, userID, orgID string) (memdomain.Role, error)
}

// PolicyEvaluator decides whether a role may perform an action.
type PolicyEvaluator interface {
	Allow(ctx context.Context, role, action string) (bool, error)
}

// UserReader loads users by id and email.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// OrgReader loads organizations.
type OrgReader interface {
	GetByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// Verifier issues and validates email-verification tokens.
type Verifier interface {
	Issue(userID, email string) (string, error)
	Validate(token string) (userID, email string, err error)
}

// Result is the outcome of an operation that establishes or updates a
// session. Token is the raw session token; it leaves the auth core only
// here.
type Result struct {
	User    *userdomain.User
	Session *sessiondomain.Session
	Token   string
}

// Context is the resolved state of a validated session.
type Context struct {
	User        *userdomain.User
	Session     *sessiondomain.Session
	Memberships []*memdomain.Membership
}

// Options configures the service.
type Options struct {
	// SignupEnabled gates self-registration.
	SignupEnabled bool
	// StorageTimeout bounds each storage call. Zero means 5s.
	StorageTimeout time.Duration
}

// Service is the auth orchestrator.
type Service struct {
	creds       CredentialStore
	sessions    SessionManager
	memberships MembershipResolver
	policy      PolicyEvaluator
	users       UserReader
	orgs        OrgReader
	verifier    Verifier
	auditor     audit.AuditLogger
	producer    events.Producer

	signupEnabled  bool
	storageTimeout time.Duration

	tracer        trace.Tracer
	signIns       metric.Int64Counter
	validations   metric.Int64Counter
	orgSwitches   metric.Int64Counter
	registrations metric.Int64Counter
}

// NewService wires the auth orchestrator. auditor and producer may be nil;
// audit and event emission then no-op.
func NewService(
	creds CredentialStore,
	sessions SessionManager,
	memberships MembershipResolver,
	policy PolicyEvaluator,
	users UserReader,
	orgs OrgReader,
	verifier Verifier,
	auditor audit.AuditLogger,
	producer events.Producer,
	opts Options,
) *Service {
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = 5 * time.Second
	}
	if auditor == nil {
		auditor = audit.NewLogger(nil)
	}
	meter := otel.Meter(instrumentationName)
	signIns, _ := meter.Int64Counter("auth.signins", metric.WithDescription("Sign-in attempts by result"))
	validations, _ := meter.Int64Counter("auth.session_validations", metric.WithDescription("Session validations by result"))
	orgSwitches, _ := meter.Int64Counter("auth.org_switches", metric.WithDescription("Organization switches by result"))
	registrations, _ := meter.Int64Counter("auth.signups", metric.WithDescription("Sign-ups by result"))
	return &Service{
		creds:          creds,
		sessions:       sessions,
		memberships:    memberships,
		policy:         policy,
		users:          users,
		orgs:           orgs,
		verifier:       verifier,
		auditor:        auditor,
		producer:       producer,
		signupEnabled:  opts.SignupEnabled,
		storageTimeout: opts.StorageTimeout,
		tracer:         otel.Tracer(instrumentationName),
		signIns:        signIns,
		validations:    validations,
		orgSwitches:    orgSwitches,
		registrations:  registrations,
	}
}

// errSessionInvalid is the single error shape for every session failure.
func errSessionInvalid() error { return apperror.Authentication("invalid or expired session") }

// withStorageTimeout runs op under the per-call storage deadline and retries
// once when the failure is transient.
func (s *Service) withStorageTimeout(ctx context.Context, op func(context.Context) error) error {
	run := func() error {
		opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
		defer cancel()
		return op(opCtx)
	}
	err := run()
	if err != nil && apperror.Retryable(err) && ctx.Err() == nil {
		err = run()
	}
	return err
}

// SignUp registers a new identity and signs it in. The new session has no
// active organization until the user joins or switches to one.
func (s *Service) SignUp(ctx context.Context, name, email, password, ip string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "auth.SignUp")
	defer span.End()
	ctx = audit.WithIP(ctx, ip)

	if !s.signupEnabled {
		s.registrations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "disabled")))
		return nil, apperror.Validation("self-registration disabled")
	}

	var user *userdomain.User
	err := s.withStorageTimeout(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.creds.Register(ctx, name, email, password)
		return err
	})
	if err != nil {
		s.registrations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "error")))
		return nil, err
	}

	res, err := s.establishSession(ctx, user, "", ip)
	if err != nil {
		return nil, err
	}
	s.registrations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "ok")))
	s.auditor.LogEvent(ctx, "", user.ID, domain.ActionSignUp, "user", "")
	events.EmitAsync(s.producer, &events.Event{Type: events.TypeSignUp, UserID: user.ID, SessionID: res.Session.ID, IP: ip})
	return res, nil
}

// SignIn verifies the password and issues a session. Every failure path
// returns the same authentication error; the audit trail records that an
// attempt for the email failed, never why.
func (s *Service) SignIn(ctx context.Context, email, password, ip string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "auth.SignIn")
	defer span.End()
	ctx = audit.WithIP(ctx, ip)

	var user *userdomain.User
	err := s.withStorageTimeout(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.creds.Verify(ctx, email, password)
		return err
	})
	if err != nil {
		if apperror.IsKind(err, apperror.KindAuthentication) {
			s.signIns.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "denied")))
			s.auditor.LogEvent(ctx, "", "", domain.ActionLoginFailure, "session", credential.NormalizeEmail(email))
			events.EmitAsync(s.producer, &events.Event{Type: events.TypeSignInFailed, IP: ip, Detail: credential.NormalizeEmail(email)})
		} else {
			s.signIns.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "error")))
		}
		return nil, err
	}

	res, err := s.establishSession(ctx, user, "", ip)
	if err != nil {
		return nil, err
	}
	s.signIns.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "ok")))
	s.auditor.LogEvent(ctx, "", user.ID, domain.ActionLoginSuccess, "session", "")
	events.EmitAsync(s.producer, &events.Event{Type: events.TypeSignIn, UserID: user.ID, SessionID: res.Session.ID, IP: ip})
	return res, nil
}

func (s *Service) establishSession(ctx context.Context, user *userdomain.User, orgID, ip string) (*Result, error) {
	var (
		sess  *sessiondomain.Session
		token string
	)
	err := s.withStorageTimeout(ctx, func(ctx context.Context) error {
		var err error
		sess, token, err = s.sessions.Issue(ctx, user.ID, orgID, ip)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Result{User: user, Session: sess, Token: token}, nil
}

// ValidateSession resolves a token to the user, session, and memberships.
// Expired, revoked, and unknown tokens are indistinguishable to the caller.
func (s *Service) ValidateSession(ctx context.Context, token string) (*Context, error) {
	ctx, span := s.tracer.Start(ctx, "auth.ValidateSession")
	defer span.End()

	var sess *sessiondomain.Session
	err := s.withStorageTimeout(ctx, func(ctx context.Context) error {
		var err error
		sess, err = s.sessions.Validate(ctx, token)
		return err
	})
	if err != nil {
		if apperror.IsKind(err, apperror.KindAuthentication) {
			s.validations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "denied")))
			s.auditor.LogEvent(ctx, "", "", domain.ActionSessionDenied, "session", err.Error())
			events.EmitAsync(s.producer, &events.Event{Type: events.TypeSessionDenied, Detail: err.Error()})
			return nil, errSessionInvalid()
		}
		s.validations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "error")))
		return nil, err
	}

	var user *userdomain.User
	err = s.withStorageTimeout(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.GetByID(ctx, sess.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != userdomain.UserStatusActive {
		s.validations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "denied")))
		s.auditor.LogEvent(ctx, sess.OrgID, sess.UserID, domain.ActionSessionDenied, "session", "user inactive")
		return nil, errSessionInvalid()
	}

	var memberships []*memdomain.Membership
	err = s.withStorageTimeout(ctx, func(ctx context.Context) error {
		var err error
		memberships, err = s.memberships.MembershipsFor(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.validations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "ok")))
	return &Context{User: user, Session: sess, Memberships: memberships}, nil
}

// ValidateToken adapts ValidateSession to the interceptor contract.
func (s *Service) ValidateToken(ctx context.Context, token string) (interceptors.Identity, error) {
	authCtx, err := s.ValidateSession(ctx, token)
	if err != nil {
		return interceptors.Identity{}, err
	}
	return interceptors.Identity{
		UserID:    authCtx.User.ID,
		OrgID:     authCtx.Session.OrgID,
		SessionID: authCtx.Session.ID,
	}, nil
}

// SignOut revokes the session for the token. Always succeeds from the
// caller's viewpoint: an unknown or already-revoked token signs out to the
// same place.
func (s *Service) SignOut(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "auth.SignOut")
	defer span.End()

	sess, _ := s.sessions.Validate(ctx, token)
	err := s.withStorageTimeout(ctx, func(ctx context.Context) error {
		return s.sessions.Revoke(ctx, token)
	})
	if err != nil {
		// The row stays revocable by the reaper; the caller's token is
		// forgotten client-side either way.
		s.auditor.LogEvent(ctx, "", "", domain.ActionLogout, "session", "revoke failed")
		return nil
	}
	if sess != nil {
		s.auditor.LogEvent(ctx, sess.OrgID, sess.UserID, domain.ActionLogout, "session", "")
		events.EmitAsync(s.producer, &events.Event{Type: events.TypeSignOut, UserID: sess.UserID, SessionID: sess.ID})
	}
	return nil
}

// RevokeAllSessions revokes every session of the user.
func (s *Service) RevokeAllSessions(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "auth.RevokeAllSessions")
	defer span.End()

	err := s.withStorageTimeout(ctx, func(ctx context.Context) error {
		return s.sessions.RevokeAllForUser(ctx, userID)
	})
	if err != nil {
		return err
	}
	s.auditor.LogEvent(ctx, "", userID, domain.ActionSessionRevoked, "session", "all")
	return nil
}

// SwitchOrganization makes orgID the session's active organization. The org
// must exist and be active, the user must be a member, and the member's role
// must pass the org-access policy.
func (s *Service) SwitchOrganization(ctx context.Context, token, orgID string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "auth.SwitchOrganization")
	defer span.End()

	var sess *sessiondomain.Session
	err := s.withStorageTimeout(ctx, func(ctx context.Context) error {
		var err error
		sess, err = s.sessions.Validate(ctx, token)
		return err
	})
	if err != nil {
		if apperror.IsKind(err, apperror.KindAuthentication) {
			return nil, errSessionInvalid()
		}
		return nil, err
	}

	denied := func(detail string) (*Result, error) {
		s.orgSwitches.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "denied")))
		s.auditor.LogEvent(ctx, orgID, sess.UserID, domain.ActionOrgSwitchDenied, "organization", detail)
		events.EmitAsync(s.producer, &events.Event{Type: events.TypeOrgSwitch, UserID: sess.UserID, OrgID: orgID, SessionID: sess.ID, Detail: detail})
		return nil, apperror.Authorization("organization access denied")
	}

	var org *orgdomain.Org
	err = s.withStorageTimeout(ctx, func(ctx context.Context) error {
		var err error
		org, err = s.orgs.GetByID(ctx, orgID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if org == nil || org.Status != orgdomain.OrgStatusActive {
		return denied("organization unavailable")
	}

	var role memdomain.Role
	err = s.withStorageTimeout(ctx, func(ctx context.Context) error {
		var err error
		role, err = s.memberships.RoleFor(ctx, sess.UserID, orgID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if role == "" {
		return denied("not a member")
	}
	allowed, err := s.policy.Allow(ctx, string(role), engine.ActionSwitchOrganization)
	if err != nil {
		return nil, apperror.Internal("evaluate org access policy", err)
	}
	if !allowed {
		return denied("role denied by policy")
	}

	err = s.withStorageTimeout(ctx, func(ctx context.Context) error {
		var err error
		sess, err = s.sessions.SwitchOrganization(ctx, token, orgID)
		return err
	})
	if err != nil {
		if apperror.IsKind(err, apperror.KindAuthorization) {
			return denied("not a member")
		}
		if apperror.IsKind(err, apperror.KindAuthentication) {
			return nil, errSessionInvalid()
		}
		return nil, err
	}

	var user *userdomain.User
	err = s.withStorageTimeout(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.GetByID(ctx, sess.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.orgSwitches.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "ok")))
	s.auditor.LogEvent(ctx, orgID, sess.UserID, domain.ActionOrgSwitch, "organization", "")
	events.EmitAsync(s.producer, &events.Event{Type: events.TypeOrgSwitch, UserID: sess.UserID, OrgID: orgID, SessionID: sess.ID})
	return &Result{User: user, Session: sess, Token: token}, nil
}

// RequestEmailVerification issues a verification token for the email.
// Delivery is the caller's concern. Unknown emails get the same success
// shape as known ones so the endpoint cannot be used to enumerate accounts;
// the returned token is empty in that case.
func (s *Service) RequestEmailVerification(ctx context.Context, email string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "auth.RequestEmailVerification")
	defer span.End()

	var user *userdomain.User
	err := s.withStorageTimeout(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.GetByEmail(ctx, credential.NormalizeEmail(email))
		return err
	})
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}
	return s.verifier.Issue(user.ID, user.Email)
}

// ConfirmEmail validates the verification token and marks the email verified.
func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "auth.ConfirmEmail")
	defer span.End()

	userID, _, err := s.verifier.Validate(token)
	if err != nil {
		return apperror.Validation("invalid verification token")
	}
	err = s.withStorageTimeout(ctx, func(ctx context.Context) error {
		return s.creds.SetEmailVerified(ctx, userID)
	})
	if err != nil {
		return err
	}
	s.auditor.LogEvent(ctx, "", userID, domain.ActionEmailVerified, "user", "")
	return nil
}
