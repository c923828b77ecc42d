package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.Equal(t, 10*time.Second, cfg.AI.PlanTimeout)
	assert.False(t, cfg.AI.Enabled())
	assert.False(t, cfg.OIDC.Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GYMOS_ADDR", ":9999")
	t.Setenv("GYMOS_AI_PLAN_TIMEOUT", "12s")
	t.Setenv("GYMOS_AI_API_KEY", "secret")
	t.Setenv("GYMOS_DATABASE_MAX_OPEN_CONNS", "20")
	t.Setenv("GYMOS_HTTP_AI_BURST", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 12*time.Second, cfg.AI.PlanTimeout)
	assert.True(t, cfg.AI.Enabled())
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, 7, cfg.HTTP.AIBurst)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "gymos.yaml")
	yml := "gym_name: Test Gym\nai:\n  model: custom-model\n  demo_mode: true\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("GYMOS_CONFIG", path)
	t.Setenv("GYMOS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Test Gym", cfg.GymName)
	assert.Equal(t, "custom-model", cfg.AI.Model)
	assert.True(t, cfg.AI.DemoMode)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GYMOS_GYM_NAME=Dotenv Gym\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("GYMOS_GYM_NAME") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Dotenv Gym", cfg.GymName)
}

func TestValidate(t *testing.T) {
	cfg := New()
	cfg.AI.CallCeiling = time.Second
	cfg.OIDC.Issuer = "https://issuer.example"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "call_ceiling")
	assert.Contains(t, err.Error(), "oidc.issuer")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "addr", envKey("GYMOS_ADDR"))
	assert.Equal(t, "web_dir", envKey("GYMOS_WEB_DIR"))
	assert.Equal(t, "ai.plan_timeout", envKey("GYMOS_AI_PLAN_TIMEOUT"))
	assert.Equal(t, "oidc.client_secret", envKey("GYMOS_OIDC_CLIENT_SECRET"))
	assert.Equal(t, "auth.session_ttl", envKey("GYMOS_AUTH_SESSION_TTL"))
}
