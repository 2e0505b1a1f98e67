package interceptors

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"saas-auth-core/internal/audit"
)

const bearerPrefix = "bearer "

// Identity is the resolved caller of an authenticated RPC.
type Identity struct {
	UserID    string
	OrgID     string
	SessionID string
}

// SessionValidator resolves an opaque session token to an identity. The
// auth service implements this; validation refreshes the session's sliding
// window as a side effect.
type SessionValidator interface {
	ValidateToken(ctx context.Context, token string) (Identity, error)
}

// AuthUnary returns a unary server interceptor that validates the opaque
// Bearer session token from gRPC metadata and sets the identity in context.
// publicMethods is the set of full method names that do not require a token
// (e.g. SignUp, SignIn, HealthCheck). The client IP is attached to the
// context for audit entries regardless of authentication.
func AuthUnary(sessions SessionValidator, publicMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx = audit.WithIP(ctx, ClientIP(ctx))

		token := extractBearer(ctx)
		public := publicMethods[info.FullMethod]

		if token == "" {
			if public {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
		}

		id, err := sessions.ValidateToken(ctx, token)
		if err != nil {
			if public {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
		}

		ctx = WithIdentity(ctx, id.UserID, id.OrgID, id.SessionID)
		return handler(ctx, req)
	}
}

// extractBearer returns the Bearer token from ctx metadata, or "" if missing
// or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
