package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-gateway/middleware/ratelimit/domain"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, 100, cfg.Server.ConcurrencyMax)
	assert.Equal(t, 60*time.Second, cfg.Server.GenerationTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 0, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.CleanupEvery)
	assert.Equal(t, "generated_content", cfg.Storage.OutputDir)
	assert.InDelta(t, 0.7, cfg.Gemini.Temperature, 1e-9)
	assert.InDelta(t, 0.95, cfg.Gemini.TopP, 1e-9)

	assert.Equal(t, domain.TierLimits{Free: 5, Basic: 10, Premium: 15}, cfg.RateLimit.TierLimits())
}

func TestLoad_YAMLWithExpansion(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TEST_RPM", "20")

	path := writeFile(t, `
server:
  port: 9090
  generation_timeout: 15s
gemini:
  default_model: ${TEST_MODEL:gemini-test}
rate_limit:
  requests_per_minute: ${TEST_RPM}
  tiers:
    premium: 500
  client_tiers:
    acme: premium
    beta: Basic
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.GenerationTimeout)
	assert.Equal(t, "gemini-test", cfg.Gemini.DefaultModel)
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, domain.TierLimits{Free: 20, Basic: 40, Premium: 500}, cfg.RateLimit.TierLimits())

	tiers, err := cfg.RateLimit.ClientTierMap()
	require.NoError(t, err)
	assert.Equal(t, domain.TierPremium, tiers["acme"])
	assert.Equal(t, domain.TierBasic, tiers["beta"])
}

func TestLoad_EnvAliasesOverrideFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "7070")
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("RATE_LIMIT_REQUESTS_PER_MINUTE", "3")

	path := writeFile(t, "server:\n  port: 9090\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Gemini.APIKey)
	assert.Equal(t, 3, cfg.RateLimit.RequestsPerMinute)
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	os.Unsetenv("GEMINI_API_KEY")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEY=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("GEMINI_API_KEY") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Gemini.APIKey)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "k")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	bad := *cfg
	bad.Gemini.APIKey = ""
	assert.ErrorContains(t, bad.Validate(), "gemini.api_key")

	bad = *cfg
	bad.Server.Port = 0
	assert.ErrorContains(t, bad.Validate(), "server.port")

	bad = *cfg
	bad.RateLimit.ClientTiers = map[string]string{"acme": "gold"}
	assert.ErrorContains(t, bad.Validate(), "unknown tier")

	bad = *cfg
	bad.RateLimit.Stats.Enabled = true
	assert.ErrorContains(t, bad.Validate(), "redis_addr")
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("X_SET", "value")
	assert.Equal(t, "a value b", expandEnv("a ${X_SET} b"))
	assert.Equal(t, "fallback", expandEnv("${X_UNSET_FOR_TEST:fallback}"))
	assert.Equal(t, "${X_UNSET_FOR_TEST}", expandEnv("${X_UNSET_FOR_TEST}"))
}

func TestLoad_SampleConfigKeepsMultiplierRule(t *testing.T) {
	sample, err := filepath.Abs(filepath.Join("..", "configs", "config.yaml"))
	require.NoError(t, err)
	t.Chdir(t.TempDir())
	t.Setenv("RATE_LIMIT_REQUESTS_PER_MINUTE", "10")

	cfg, err := Load(sample)
	require.NoError(t, err)

	assert.Equal(t, domain.TierLimits{Free: 10, Basic: 20, Premium: 50}, cfg.RateLimit.TierLimits())
}
