// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// DBTimeout bounds each storage call (e.g. "5s").
	DBTimeout string `mapstructure:"DB_TIMEOUT"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// PasswordMinLength is the minimum accepted password length; values below 8 are raised to 8.
	PasswordMinLength int `mapstructure:"PASSWORD_MIN_LENGTH"`
	// SignupEnabled gates self-registration.
	SignupEnabled bool `mapstructure:"SIGNUP_ENABLED"`

	// SessionMaxAge is the session lifetime (e.g. "720h" = 30 days).
	SessionMaxAge string `mapstructure:"SESSION_MAX_AGE"`
	// SessionRefreshFraction (0..1] is the elapsed fraction of SessionMaxAge after which
	// a validated session's expiry slides forward. 0 means strict fixed expiry.
	SessionRefreshFraction float64 `mapstructure:"SESSION_REFRESH_FRACTION"`
	// SessionCookieName is the cookie HTTP consumers carry the token in.
	SessionCookieName string `mapstructure:"SESSION_COOKIE_NAME"`
	// CookieSecure marks the session cookie Secure. Must be true in production.
	CookieSecure bool `mapstructure:"COOKIE_SECURE"`

	// ArgonTime, ArgonMemoryKiB, ArgonThreads tune argon2id hashing.
	ArgonTime      int `mapstructure:"ARGON_TIME"`
	ArgonMemoryKiB int `mapstructure:"ARGON_MEMORY_KIB"`
	ArgonThreads   int `mapstructure:"ARGON_THREADS"`

	// VerifyTokenSecret signs email-verification tokens (HS256). Required in production.
	VerifyTokenSecret string `mapstructure:"VERIFY_TOKEN_SECRET"`
	// VerifyTokenTTL is the verification token lifetime (e.g. "24h").
	VerifyTokenTTL string `mapstructure:"VERIFY_TOKEN_TTL"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`

	// KafkaBrokers is a comma-separated broker list for the auth event stream; empty disables it.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AuthEventsTopic is the Kafka topic auth events are published to.
	AuthEventsTopic string `mapstructure:"AUTH_EVENTS_TOPIC"`

	// ReaperInterval is how often cmd/reaper purges long-expired sessions (e.g. "1h").
	ReaperInterval string `mapstructure:"REAPER_INTERVAL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_TIMEOUT", "5s")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("PASSWORD_MIN_LENGTH", 8)
	v.SetDefault("SIGNUP_ENABLED", true)
	v.SetDefault("SESSION_MAX_AGE", "720h") // 30d
	v.SetDefault("SESSION_REFRESH_FRACTION", 0.5)
	v.SetDefault("SESSION_COOKIE_NAME", "auth_session")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("ARGON_TIME", 3)
	v.SetDefault("ARGON_MEMORY_KIB", 64*1024)
	v.SetDefault("ARGON_THREADS", 2)
	v.SetDefault("VERIFY_TOKEN_SECRET", "")
	v.SetDefault("VERIFY_TOKEN_TTL", "24h")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUTH_EVENTS_TOPIC", "auth-events")
	v.SetDefault("REAPER_INTERVAL", "1h")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}
	if cfg.SessionRefreshFraction < 0 || cfg.SessionRefreshFraction > 1 {
		return nil, errors.New("config: SESSION_REFRESH_FRACTION must be in [0, 1]")
	}
	if cfg.Env == "production" {
		if cfg.VerifyTokenSecret == "" {
			return nil, errors.New("config: VERIFY_TOKEN_SECRET must be set when APP_ENV=production")
		}
		if !cfg.CookieSecure {
			return nil, errors.New("config: COOKIE_SECURE must be true when APP_ENV=production")
		}
	}
	if cfg.PasswordMinLength < 8 {
		cfg.PasswordMinLength = 8
	}

	return &cfg, nil
}

// SessionMaxAgeDuration parses SessionMaxAge. Returns 720h if unset or invalid.
func (c *Config) SessionMaxAgeDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionMaxAge)
	if err != nil || d <= 0 {
		return 720 * time.Hour
	}
	return d
}

// DBTimeoutDuration parses DBTimeout. Returns 5s if unset or invalid.
func (c *Config) DBTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.DBTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// VerifyTokenTTLDuration parses VerifyTokenTTL. Returns 24h if unset or invalid.
func (c *Config) VerifyTokenTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.VerifyTokenTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// ReaperIntervalDuration parses ReaperInterval. Returns 1h if unset or invalid.
func (c *Config) ReaperIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.ReaperInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// KafkaBrokersList returns broker addresses from the comma-separated config.
// A non-empty list enables the auth event stream.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
