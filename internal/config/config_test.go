package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, OfficialEndpoint, cfg.Endpoint)
	assert.Equal(t, 4000, cfg.MaxTokens)
	assert.Equal(t, "puter/", cfg.BridgePrefix)
	assert.False(t, cfg.AutoTitle)
}

func TestLoadFromCLIArgs(t *testing.T) {
	args := []string{"--model", "claude-3", "--api-key", "sk-test", "--max-tokens", "2048", "--auto-title", "--header", "X-Org=acme"}
	cfg, err := Load(args)
	require.NoError(t, err)
	assert.Equal(t, "claude-3", cfg.Model)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, 2048, cfg.MaxTokens)
	assert.True(t, cfg.AutoTitle)
	assert.Equal(t, map[string]string{"X-Org": "acme"}, cfg.Headers)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GOCHAT_MODEL", "env-model")
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("GOCHAT_ENDPOINT", "http://localhost:11434/v1/chat/completions")
	t.Setenv("GOCHAT_LANGUAGE", "de")
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "env-model", cfg.Model)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "http://localhost:11434/v1/chat/completions", cfg.Endpoint)
	assert.Equal(t, "de", cfg.Language)
}

func TestPersona(t *testing.T) {
	t.Setenv("GOCHAT_PERSONA", "pirate")
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "pirate", cfg.Persona)

	cfg, err = Load([]string{"--persona", "reviewer"})
	require.NoError(t, err)
	assert.Equal(t, "reviewer", cfg.Persona)
}

func TestCLIOverridesEnv(t *testing.T) {
	t.Setenv("GOCHAT_MODEL", "env-model")
	cfg, err := Load([]string{"-m", "cli-model"})
	require.NoError(t, err)
	assert.Equal(t, "cli-model", cfg.Model)
}

func TestUnknownFlag(t *testing.T) {
	_, err := Load([]string{"--bogus"})
	assert.Error(t, err)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	yamlContent := []byte("model: yaml-model\napi-key: yaml-key\ncount-total-tokens: true\nheaders:\n  X-Team: core\n")
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, yamlContent, 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.loadYAML(path))
	assert.Equal(t, "yaml-model", cfg.Model)
	assert.Equal(t, "yaml-key", cfg.APIKey)
	assert.True(t, cfg.CountTotalTokens)
	assert.Equal(t, "core", cfg.Headers["X-Team"])
	assert.Equal(t, 4000, cfg.MaxTokens)
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.loadYAML("/nonexistent/path.yml")
	assert.Error(t, err)
}

func TestModelConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Temperature = 0.2
	mc := cfg.ModelConfig()
	assert.Equal(t, "gpt-4o-mini", mc.Model)
	assert.Equal(t, 4000, mc.MaxTokens)
	assert.Equal(t, 0.2, mc.Temperature)
	assert.Equal(t, 1.0, mc.TopP)
}
