package profile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvProviderDefaults(t *testing.T) {
	t.Setenv("KAIWA_LLM_PROVIDER", "deepseek")
	t.Setenv("KAIWA_LLM_API_KEY", "sk-test")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "deepseek", p.LLMProvider)
	assert.Equal(t, "https://api.deepseek.com", p.LLMBaseURL)
	assert.Equal(t, "deepseek-chat", p.LLMModel)
	assert.Equal(t, 120, p.LLMTimeout)
	assert.True(t, p.IsLLMEnabled())
}

func TestFromEnvUnknownProviderFallsBack(t *testing.T) {
	t.Setenv("KAIWA_LLM_PROVIDER", "frontier-9000")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "openai", p.LLMProvider)
	assert.Equal(t, "https://api.openai.com/v1", p.LLMBaseURL)
}

func TestFromEnvMatchingDefaults(t *testing.T) {
	p := &Profile{}
	p.FromEnv()

	assert.InDelta(t, 0.8, p.MatchThreshold, 1e-9)
	assert.Equal(t, 50, p.CandidateLimit)
	assert.InDelta(t, 0.002, p.CostPerKTokensUSD, 1e-9)
}

func TestValidateSQLiteDefaultDSN(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{Mode: "dev", Driver: "sqlite", Data: dir, MatchThreshold: 0.8, CandidateLimit: 50}

	require.NoError(t, p.Validate())
	assert.Equal(t, filepath.Join(dir, "kaiwa_dev.db"), p.DSN)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "mysql"}
	assert.Error(t, p.Validate())

	p = &Profile{Mode: "dev", Driver: "sqlite", MatchThreshold: 1.5}
	assert.Error(t, p.Validate())

	p = &Profile{Mode: "prod", Driver: "postgres", MatchThreshold: 0.8}
	assert.Error(t, p.Validate(), "postgres requires a DSN")
}

func TestIsLLMEnabled(t *testing.T) {
	assert.False(t, (&Profile{}).IsLLMEnabled())
	assert.True(t, (&Profile{LLMAPIKey: "k"}).IsLLMEnabled())
	// Ollama runs locally without an API key.
	assert.True(t, (&Profile{LLMProvider: "ollama"}).IsLLMEnabled())
}
