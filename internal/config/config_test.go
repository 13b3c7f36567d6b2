package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithEnvVars(t *testing.T) {
	t.Setenv("LENSREPORT_SEARCH_API_KEY", "search-key")
	t.Setenv("LENSREPORT_ANTHROPIC_API_KEY", "anthropic-key")
	t.Setenv("LENSREPORT_LLM_MODEL", "claude-test")
	t.Setenv("LENSREPORT_HTTP_TIMEOUT", "5s")
	t.Setenv("LENSREPORT_WORK_DIR", "/tmp/lens")
	t.Setenv("LENSREPORT_SENTRY_DSN", "https://public@example.com/1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "search-key", cfg.SearchAPIKey)
	assert.Equal(t, "anthropic-key", cfg.AnthropicAPIKey)
	assert.Equal(t, "claude-test", cfg.LLMModel)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "/tmp/lens", cfg.WorkDir)
	assert.True(t, cfg.HasSentry())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LENSREPORT_SEARCH_API_KEY", "search-key")
	t.Setenv("LENSREPORT_ANTHROPIC_API_KEY", "anthropic-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://www.searchapi.io/api/v1/search", cfg.SearchBaseURL)
	assert.Equal(t, "google_lens", cfg.SearchEngine)
	assert.Equal(t, "https://api.anthropic.com/v1/", cfg.LLMBaseURL)
	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.LLMModel)
	assert.Equal(t, 1024, cfg.LLMMaxTokens)
	assert.Equal(t, "https://drive.google.com", cfg.DriveBaseURL)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	assert.NotEmpty(t, cfg.WorkDir)
	assert.False(t, cfg.HasSentry())
}

func TestLoad_RequiredSearchKey(t *testing.T) {
	t.Setenv("LENSREPORT_SEARCH_API_KEY", "")
	t.Setenv("LENSREPORT_ANTHROPIC_API_KEY", "anthropic-key")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingSearchKey)
	assert.Contains(t, err.Error(), "LENSREPORT_SEARCH_API_KEY")
}

func TestLoad_RequiredAnthropicKey(t *testing.T) {
	t.Setenv("LENSREPORT_SEARCH_API_KEY", "search-key")
	t.Setenv("LENSREPORT_ANTHROPIC_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAnthropicKey)
}

func TestValidate_RejectsBadLimits(t *testing.T) {
	cfg := &Config{
		SearchAPIKey:    "a",
		AnthropicAPIKey: "b",
		LLMMaxTokens:    0,
		HTTPTimeout:     time.Second,
	}
	assert.Error(t, cfg.Validate())

	cfg.LLMMaxTokens = 10
	cfg.HTTPTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg.HTTPTimeout = time.Second
	assert.NoError(t, cfg.Validate())
}

func TestRead_DoesNotRequireKeys(t *testing.T) {
	t.Setenv("LENSREPORT_SEARCH_API_KEY", "")
	t.Setenv("LENSREPORT_ANTHROPIC_API_KEY", "")
	t.Setenv("LENSREPORT_DRIVE_BASE_URL", "http://localhost:9999")

	cfg, err := Read()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999", cfg.DriveBaseURL)
	assert.Error(t, cfg.Validate())
}
