package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":8080" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":8080")
	}
	if cfg.PasswordMinLength != 8 {
		t.Errorf("PasswordMinLength = %d, want 8", cfg.PasswordMinLength)
	}
	if !cfg.SignupEnabled {
		t.Error("SignupEnabled should default to true")
	}
	if cfg.SessionMaxAge != "720h" {
		t.Errorf("SessionMaxAge = %q, want 720h", cfg.SessionMaxAge)
	}
	if cfg.SessionRefreshFraction != 0.5 {
		t.Errorf("SessionRefreshFraction = %v, want 0.5", cfg.SessionRefreshFraction)
	}
	if cfg.SessionCookieName != "auth_session" {
		t.Errorf("SessionCookieName = %q, want auth_session", cfg.SessionCookieName)
	}
	if cfg.ArgonMemoryKiB != 64*1024 {
		t.Errorf("ArgonMemoryKiB = %d, want %d", cfg.ArgonMemoryKiB, 64*1024)
	}
	if cfg.AuthEventsTopic != "auth-events" {
		t.Errorf("AuthEventsTopic = %q, want auth-events", cfg.AuthEventsTopic)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":9090")
	os.Setenv("SESSION_MAX_AGE", "48h")
	os.Setenv("SESSION_REFRESH_FRACTION", "0.25")
	os.Setenv("PASSWORD_MIN_LENGTH", "12")
	os.Setenv("SIGNUP_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q, want :9090", cfg.GRPCAddr)
	}
	if cfg.SessionMaxAgeDuration() != 48*time.Hour {
		t.Errorf("SessionMaxAgeDuration = %v, want 48h", cfg.SessionMaxAgeDuration())
	}
	if cfg.SessionRefreshFraction != 0.25 {
		t.Errorf("SessionRefreshFraction = %v, want 0.25", cfg.SessionRefreshFraction)
	}
	if cfg.PasswordMinLength != 12 {
		t.Errorf("PasswordMinLength = %d, want 12", cfg.PasswordMinLength)
	}
	if cfg.SignupEnabled {
		t.Error("SignupEnabled should be overridden to false")
	}
}

func TestLoad_PasswordMinLengthFloor(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":8080")
	os.Setenv("PASSWORD_MIN_LENGTH", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PasswordMinLength != 8 {
		t.Errorf("PasswordMinLength = %d, want floor of 8", cfg.PasswordMinLength)
	}
}

func TestLoad_InvalidRefreshFraction(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":8080")
	os.Setenv("SESSION_REFRESH_FRACTION", "1.5")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for refresh fraction > 1")
	}
}

func TestLoad_ProductionRequirements(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":8080")
	os.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for production without VERIFY_TOKEN_SECRET")
	}

	os.Setenv("VERIFY_TOKEN_SECRET", "super-secret")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for production without COOKIE_SECURE")
	}

	os.Setenv("COOKIE_SECURE", "true")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should be true")
	}
}

func TestDurationAccessors_Fallbacks(t *testing.T) {
	cfg := &Config{
		DBTimeout:      "bogus",
		SessionMaxAge:  "",
		VerifyTokenTTL: "-1h",
		ReaperInterval: "zero",
	}
	if got := cfg.DBTimeoutDuration(); got != 5*time.Second {
		t.Errorf("DBTimeoutDuration = %v, want 5s", got)
	}
	if got := cfg.SessionMaxAgeDuration(); got != 720*time.Hour {
		t.Errorf("SessionMaxAgeDuration = %v, want 720h", got)
	}
	if got := cfg.VerifyTokenTTLDuration(); got != 24*time.Hour {
		t.Errorf("VerifyTokenTTLDuration = %v, want 24h", got)
	}
	if got := cfg.ReaperIntervalDuration(); got != time.Hour {
		t.Errorf("ReaperIntervalDuration = %v, want 1h", got)
	}
}

func TestKafkaBrokersList(t *testing.T) {
	cfg := &Config{KafkaBrokers: " localhost:9092 , , broker2:9092"}
	got := cfg.KafkaBrokersList()
	if len(got) != 2 || got[0] != "localhost:9092" || got[1] != "broker2:9092" {
		t.Errorf("KafkaBrokersList = %v", got)
	}
	if (&Config{}).KafkaBrokersList() != nil {
		t.Error("empty config should return nil broker list")
	}
}
