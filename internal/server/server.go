// Package server assembles the gRPC server: interceptor chain (telemetry,
// session auth, audit) plus the standard health service.
package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"saas-auth-core/internal/audit"
	"saas-auth-core/internal/server/interceptors"
)

// publicMethods are RPCs served without a session token.
var publicMethods = map[string]bool{
	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/Watch": true,
}

// skipMethods are RPCs excluded from per-call audit noise.
var skipMethods = map[string]bool{
	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/Watch": true,
}

// New builds the gRPC server with the interceptor chain and health service
// registered. Interceptors run in order: telemetry wraps everything, auth
// resolves the identity, audit records authenticated calls.
func New(sessions interceptors.SessionValidator, auditor audit.AuditLogger) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.TelemetryUnary(),
			interceptors.AuthUnary(sessions, publicMethods),
			interceptors.AuditUnary(auditor, skipMethods),
		),
	)
	grpc_health_v1.RegisterHealthServer(s, health.NewServer())
	return s
}
