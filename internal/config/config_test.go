package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearVendorEnv blanks every variable Load reads so host settings do not leak in.
func clearVendorEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ANTHROPIC_API_KEY", "REACT_APP_ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "ANTHROPIC_MAX_TOKENS", "ANTHROPIC_BASE_URL",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_MAX_TOKENS", "OPENAI_BASE_URL", "OPENAI_TEMPERATURE",
		"RESEND_API_KEY", "ORDER_FROM", "RESEND_BASE_URL", "ORDER_RECIPIENT",
		"PORT", "DB_PATH", "STATIC_DIR", "SETTINGS_DIR", "LOG_LEVEL", "VENDOR_TIMEOUT", "PERSONA_SWITCH_DELAY",
		"SESSION_IDLE_TTL", "SESSION_SWEEP_INTERVAL",
	} {
		t.Setenv(k, "")
	}
}

func writeSecrets(t *testing.T, dir, content string) {
	t.Helper()
	secretsDir := filepath.Join(dir, "secrets")
	require.NoError(t, os.MkdirAll(secretsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(secretsDir, "vendors.yaml"), []byte(content), 0644))
}

func TestLoadSecrets_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeSecrets(t, tmpDir, `
anthropic:
  api_key: "sk-ant-test"
openai:
  api_key: "sk-openai-test"
  temperature: 0.2
resend:
  api_key: "re_test"
`)

	s, err := loadSecrets(filepath.Join(tmpDir, "secrets", "vendors.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sk-ant-test", s.Anthropic.APIKey)
	assert.Equal(t, "sk-openai-test", s.OpenAI.APIKey)
	require.NotNil(t, s.OpenAI.Temperature)
	assert.Equal(t, 0.2, *s.OpenAI.Temperature)
	assert.Equal(t, "re_test", s.Resend.APIKey)
}

func TestLoadSecrets_FileNotFound(t *testing.T) {
	_, err := loadSecrets("/nonexistent/path/vendors.yaml")
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_DefaultsWithoutSecrets(t *testing.T) {
	clearVendorEnv(t)
	t.Setenv("SETTINGS_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "data/app.db", cfg.DBPath)
	assert.Empty(t, cfg.Anthropic.APIKey)
	assert.Equal(t, "claude-3-5-sonnet-20240620", cfg.Anthropic.Model)
	assert.Equal(t, int64(1000), cfg.Anthropic.MaxTokens)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	require.NotNil(t, cfg.OpenAI.Temperature)
	assert.Equal(t, 0.7, *cfg.OpenAI.Temperature)
	assert.Equal(t, "Fairytale Farms <orders@yourdomain.dev>", cfg.Resend.From)
	assert.Equal(t, "fairytalefarms.net@gmail.com", cfg.OrderRecipient)
	assert.Equal(t, 60*time.Second, cfg.VendorTimeout)
	assert.Equal(t, 600*time.Millisecond, cfg.SwitchDelay)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
}

func TestLoad_WithEnvVars(t *testing.T) {
	clearVendorEnv(t)
	tmpDir := t.TempDir()
	writeSecrets(t, tmpDir, `
anthropic:
  api_key: "from-file"
openai:
  api_key: "openai-from-file"
`)

	t.Setenv("SETTINGS_DIR", tmpDir)
	t.Setenv("DB_PATH", "/custom/db/path.db")
	t.Setenv("STATIC_DIR", "/custom/static")
	t.Setenv("REACT_APP_ANTHROPIC_API_KEY", "from-env")
	t.Setenv("VENDOR_TIMEOUT", "5s")
	t.Setenv("PERSONA_SWITCH_DELAY", "0s")
	t.Setenv("SESSION_IDLE_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/custom/db/path.db", cfg.DBPath)
	assert.Equal(t, "/custom/static", cfg.StaticDir)
	assert.Equal(t, "from-env", cfg.Anthropic.APIKey, "environment wins over the secrets file")
	assert.Equal(t, "openai-from-file", cfg.OpenAI.APIKey, "secrets file fills empty env values")
	assert.Equal(t, 5*time.Second, cfg.VendorTimeout)
	assert.Equal(t, time.Duration(0), cfg.SwitchDelay)
	assert.Equal(t, 2*time.Hour, cfg.SessionIdleTTL)
}

func TestLoad_ZeroTemperature(t *testing.T) {
	clearVendorEnv(t)
	t.Setenv("SETTINGS_DIR", t.TempDir())
	t.Setenv("OPENAI_TEMPERATURE", "0")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.OpenAI.Temperature)
	assert.Equal(t, 0.0, *cfg.OpenAI.Temperature)
}

func TestLoad_ZeroTemperatureFromSecrets(t *testing.T) {
	clearVendorEnv(t)
	tmpDir := t.TempDir()
	writeSecrets(t, tmpDir, `
openai:
  temperature: 0
`)
	t.Setenv("SETTINGS_DIR", tmpDir)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.OpenAI.Temperature)
	assert.Equal(t, 0.0, *cfg.OpenAI.Temperature)
}

func TestLoad_MalformedSecrets(t *testing.T) {
	clearVendorEnv(t)
	tmpDir := t.TempDir()
	writeSecrets(t, tmpDir, "anthropic: [unclosed")
	t.Setenv("SETTINGS_DIR", tmpDir)

	_, err := Load()
	assert.Error(t, err)
}
