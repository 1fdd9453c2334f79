package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("CORS_ALLOW_ORIGINS", "")

	cfg := Load()

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowOrigins)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 120*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, "v1", cfg.PromptVersion)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, uint32(5), cfg.Breaker.MinRequests)
	assert.InDelta(t, 0.6, cfg.Breaker.FailureRatio, 1e-9)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "prod")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://localhost:5173, https://app.example.com ,")
	t.Setenv("MAX_UPLOAD_BYTES", "2048")
	t.Setenv("ANALYSIS_TIMEOUT", "45s")
	t.Setenv("LLM_PROVIDER", "Google")
	t.Setenv("LLM_MODEL", " gemini-2.5-flash ")
	t.Setenv("LLM_BREAKER_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, []string{"http://localhost:5173", "https://app.example.com"}, cfg.CORSAllowOrigins)
	assert.Equal(t, int64(2048), cfg.MaxUploadBytes)
	assert.Equal(t, 45*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLMModel)
	assert.False(t, cfg.Breaker.Enabled)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PROMPT_VERSION: v1\nSCRATCH_DIR: /tmp/resumes\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SCRATCH_DIR", "")

	cfg := Load()

	assert.Equal(t, "/tmp/resumes", cfg.ScratchDir)
}

func TestUnknownProviderNormalizesToNone(t *testing.T) {
	assert.Equal(t, "none", normalizeProvider("anthropic"))
	assert.Equal(t, "openai", normalizeProvider(" OpenAI "))
}
