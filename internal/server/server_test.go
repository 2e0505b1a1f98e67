package server

import (
	"context"
	"testing"

	"saas-auth-core/internal/server/interceptors"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(context.Context, string) (interceptors.Identity, error) {
	return interceptors.Identity{}, nil
}

func TestNew_RegistersHealthService(t *testing.T) {
	s := New(stubValidator{}, nil)
	defer s.Stop()

	info := s.GetServiceInfo()
	if _, ok := info["grpc.health.v1.Health"]; !ok {
		t.Fatalf("health service not registered, got %v", info)
	}
}

func TestPublicMethodsCoverHealth(t *testing.T) {
	for m := range skipMethods {
		if !publicMethods[m] {
			t.Errorf("%s is skipped from audit but requires auth", m)
		}
	}
}
