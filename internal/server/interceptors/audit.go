package interceptors

import (
	"context"
	"strings"

	"google.golang.org/grpc"

	"saas-auth-core/internal/audit"
)

// AuditUnary returns a unary server interceptor that records an audit entry
// after each authenticated RPC. skipMethods is the set of full method names
// to not audit (e.g. HealthCheck, ListAuditLogs). Writes are best-effort and
// only happen when an identity is present; the auth service audits its own
// unauthenticated operations (sign-in failures, sign-ups) itself.
func AuditUnary(logger audit.AuditLogger, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if logger == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		userID, _ := GetUserID(ctx)
		if userID == "" {
			return resp, err
		}
		orgID, _ := GetOrgID(ctx)
		action, resource := splitFullMethod(info.FullMethod)
		logger.LogEvent(ctx, orgID, userID, action, resource, "")
		return resp, err
	}
}

// splitFullMethod turns "/pkg.Service/Method" into a snake_case action and
// the service name as the resource.
func splitFullMethod(fullMethod string) (action, resource string) {
	trimmed := strings.TrimPrefix(fullMethod, "/")
	service, method, ok := strings.Cut(trimmed, "/")
	if !ok {
		return trimmed, ""
	}
	if i := strings.LastIndex(service, "."); i >= 0 {
		service = service[i+1:]
	}
	return toSnake(method), service
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
