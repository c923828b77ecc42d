package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "GYMOS_"

// sections are the nested config blocks; the first underscore after one of
// these in an env key separates section from field.
var sections = []string{"log", "database", "redis", "ai", "http", "auth", "oidc"}

// Load builds a Config by layering, low to high precedence:
//  1. defaults (New)
//  2. YAML file named by GYMOS_CONFIG, if set
//  3. environment (GYMOS_*), after loading a .env file when present
func Load() (*Config, error) {
	// Existing environment wins over .env.
	_ = godotenv.Load()

	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps GYMOS_AI_PLAN_TIMEOUT to ai.plan_timeout and GYMOS_ADDR to addr.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, sec := range sections {
		if strings.HasPrefix(s, sec+"_") {
			return sec + "." + strings.TrimPrefix(s, sec+"_")
		}
	}
	return s
}

// Validate checks invariants that defaults cannot guarantee.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.AI.PlanTimeout <= 0 {
		errs = append(errs, errors.New("ai.plan_timeout must be positive"))
	}
	if c.AI.ScanTimeout <= 0 {
		errs = append(errs, errors.New("ai.scan_timeout must be positive"))
	}
	if c.AI.CallCeiling < c.AI.PlanTimeout {
		errs = append(errs, errors.New("ai.call_ceiling must not be shorter than ai.plan_timeout"))
	}
	if c.AI.MaxImageBytes <= 0 {
		errs = append(errs, errors.New("ai.max_image_bytes must be positive"))
	}
	if c.HTTP.AIRatePerMinute <= 0 || c.HTTP.AIBurst <= 0 {
		errs = append(errs, errors.New("http.ai_rate_per_minute and http.ai_burst must be positive"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth.session_ttl must be positive"))
	}
	if (c.OIDC.Issuer == "") != (c.OIDC.ClientID == "") {
		errs = append(errs, errors.New("oidc.issuer and oidc.client_id must be set together"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
