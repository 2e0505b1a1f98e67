package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, Kind("")},
		{"validation", Validation("too short"), KindValidation},
		{"conflict", Conflict("email already registered"), KindConflict},
		{"authentication", Authentication("invalid credentials"), KindAuthentication},
		{"authorization", Authorization("not a member"), KindAuthorization},
		{"transient", Transient("query timed out", errors.New("deadline")), KindTransientStorage},
		{"internal", Internal("invariant violated", errors.New("boom")), KindInternal},
		{"plain error", errors.New("boom"), KindInternal},
		{"wrapped", fmt.Errorf("sign in: %w", Conflict("taken")), KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(Transient("timeout", errors.New("deadline"))) {
		t.Error("transient storage errors should be retryable")
	}
	if Retryable(Authentication("invalid credentials")) {
		t.Error("authentication errors should not be retryable")
	}
	if Retryable(nil) {
		t.Error("nil should not be retryable")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Transient("db unavailable", cause)
	if !errors.Is(err, cause) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindInternal, "x", nil) != nil {
		t.Error("Wrap with nil cause should return nil")
	}
}
