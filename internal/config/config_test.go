package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8100", cfg.Server.Addr)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 2*time.Hour, cfg.Server.SessionTTL)
	assert.Empty(t, cfg.Audit.Path)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFiles(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  addr: ":9000"
  session_ttl: 30m
  rate_limit:
    rps: 2.5
    burst: 5
llm:
  base_url: "http://localhost:11434/v1/"
  model: "llama3.1:8b"
audit:
  path: "audit.db"
log:
  development: true
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, 2.5, cfg.Server.RateLimit.RPS)
	assert.Equal(t, 5, cfg.Server.RateLimit.Burst)
	assert.Equal(t, "http://localhost:11434/v1/", cfg.LLM.BaseURL)
	assert.Equal(t, "llama3.1:8b", cfg.LLM.Model)
	assert.Equal(t, "audit.db", cfg.Audit.Path)
	assert.True(t, cfg.Log.Development)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "server:\n  addr: \":9000\"\n")
	t.Setenv("CAONLINE_ADDR", ":9100")
	t.Setenv("OPENAI_MODEL", "gpt-4.1-mini")
	t.Setenv("CAONLINE_SESSION_TTL", "10m")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, "gpt-4.1-mini", cfg.LLM.Model)
	assert.Equal(t, 10*time.Minute, cfg.Server.SessionTTL)
}

func TestLoad_DotEnv(t *testing.T) {
	env := writeFile(t, ".env", "CAONLINE_AUDIT_PATH=from-dotenv.db\n")
	t.Setenv("CAONLINE_AUDIT_PATH", "")
	os.Unsetenv("CAONLINE_AUDIT_PATH")

	cfg, err := Load("", env)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.db", cfg.Audit.Path)
}

func TestLoad_MissingDotEnvIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)

	bad := writeFile(t, "bad.yaml", "server: [unclosed")
	_, err = Load(bad, "")
	assert.Error(t, err)

	t.Setenv("CAONLINE_SESSION_TTL", "soon")
	_, err = Load("", "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero ttl", func(c *Config) { c.Server.SessionTTL = 0 }},
		{"negative rps", func(c *Config) { c.Server.RateLimit.RPS = -1 }},
		{"empty model", func(c *Config) { c.LLM.Model = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRelayURL(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "http://localhost:8100/api/gpt", cfg.RelayURL())

	cfg.Server.Addr = "0.0.0.0:9000"
	assert.Equal(t, "http://localhost:9000/api/gpt", cfg.RelayURL())

	cfg.Server.RelayURL = "https://relay.example.com/api/gpt"
	assert.Equal(t, "https://relay.example.com/api/gpt", cfg.RelayURL())
}
