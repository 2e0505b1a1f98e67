package migrate

import (
	"strings"
	"testing"
)

func TestRun_EmptyDSN(t *testing.T) {
	if err := Run("", "up"); err == nil {
		t.Fatal("Run with empty DSN should fail")
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	err := Run("postgres://localhost/db", "sideways")
	if err == nil {
		t.Fatal("Run with invalid direction should fail")
	}
	if !strings.Contains(err.Error(), "direction") {
		t.Errorf("error should mention direction, got %v", err)
	}
}
