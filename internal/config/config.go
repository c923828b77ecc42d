// Package config defines the service configuration and its loader.
package config

import (
	"time"
)

// Config aggregates all runtime settings of the service.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// WebDir holds the static single-page UI.
	WebDir string `koanf:"web_dir"`
	// GymName appears in member reminder messages.
	GymName string `koanf:"gym_name"`

	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	AI       AIConfig       `koanf:"ai"`
	HTTP     HTTPConfig     `koanf:"http"`
	Auth     AuthConfig     `koanf:"auth"`
	OIDC     OIDCConfig     `koanf:"oidc"`
}

type LogConfig struct {
	Level    string `koanf:"level"`
	Encoding string `koanf:"encoding"`
}

// DatabaseConfig configures PostgreSQL. An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL          string        `koanf:"url"`
	MaxOpenConns int           `koanf:"max_open_conns"`
	MaxIdleConns int           `koanf:"max_idle_conns"`
	ConnLifetime time.Duration `koanf:"conn_lifetime"`
}

// RedisConfig configures the optional session store. An empty URL keeps
// sessions in the primary store.
type RedisConfig struct {
	URL string `koanf:"url"`
}

// AIConfig configures the completion service and its guards.
type AIConfig struct {
	APIKey          string        `koanf:"api_key"`
	Model           string        `koanf:"model"`
	PlanTimeout     time.Duration `koanf:"plan_timeout"`
	ScanTimeout     time.Duration `koanf:"scan_timeout"`
	CallCeiling     time.Duration `koanf:"call_ceiling"`
	DemoMode        bool          `koanf:"demo_mode"`
	MaxImageBytes   int           `koanf:"max_image_bytes"`
	BreakerFailures int           `koanf:"breaker_failures"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown"`
}

// Enabled reports whether real completion calls should be made.
func (c AIConfig) Enabled() bool { return c.APIKey != "" && !c.DemoMode }

type HTTPConfig struct {
	AIRatePerMinute float64 `koanf:"ai_rate_per_minute"`
	AIBurst         int     `koanf:"ai_burst"`
}

type AuthConfig struct {
	SessionTTL time.Duration `koanf:"session_ttl"`
	// ForwardAuth trusts the Remote-User header set by an auth proxy.
	ForwardAuth bool `koanf:"forward_auth"`
}

// OIDCConfig enables SSO when Issuer and ClientID are both set.
type OIDCConfig struct {
	Issuer       string `koanf:"issuer"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURL  string `koanf:"redirect_url"`
}

// Enabled reports whether SSO is configured.
func (c OIDCConfig) Enabled() bool { return c.Issuer != "" && c.ClientID != "" }

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:    ":8080",
		WebDir:  "web",
		GymName: "Iron Muscle Gym",
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			ConnLifetime: 5 * time.Minute,
		},
		AI: AIConfig{
			Model:           "gemini-2.5-flash",
			PlanTimeout:     10 * time.Second,
			ScanTimeout:     15 * time.Second,
			CallCeiling:     60 * time.Second,
			MaxImageBytes:   4 << 20,
			BreakerFailures: 3,
			BreakerCooldown: 30 * time.Second,
		},
		HTTP: HTTPConfig{
			AIRatePerMinute: 6,
			AIBurst:         3,
		},
		Auth: AuthConfig{
			SessionTTL: 24 * time.Hour,
		},
	}
}
