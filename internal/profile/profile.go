package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the kaiwa cache subsystem.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol).
	// All providers (openai, deepseek, ollama, ...) use the same config.
	LLMProvider string // Provider identifier: openai, deepseek, ollama, ...
	LLMAPIKey   string // LLM API key
	LLMBaseURL  string // LLM base URL (optional, has default per provider)
	LLMModel    string // Model name: gpt-4o, deepseek-chat, etc.
	LLMTimeout  int    // LLM request timeout in seconds (default: 120)

	// Matching configuration.
	MatchThreshold float64 // default minimum similarity for a cache hit
	CandidateLimit int     // bounded candidate fetch size for matching

	// Cost estimation for analytics.
	CostPerKTokensUSD float64

	// Other configurations.
	Mode        string // dev, prod
	Data        string // data directory
	Driver      string // sqlite, postgres
	DSN         string
	MetricsAddr string // optional Prometheus listen address
	Version     string
}

// Provider default configurations for LLM.
// Used when KAIWA_LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMEnabled returns true if the generator collaborator is configured.
// Without it the cache can still serve hits from seeded patterns.
func (p *Profile) IsLLMEnabled() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvOrDefaultFloat returns environment variable value as float64 or default value.
func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("KAIWA_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("KAIWA_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("KAIWA_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("KAIWA_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("KAIWA_LLM_TIMEOUT_SECONDS", 120)

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("unknown LLM provider, using default: openai", "provider", p.LLMProvider)
		p.LLMProvider = "openai"
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}

	p.MatchThreshold = getEnvOrDefaultFloat("KAIWA_MATCH_THRESHOLD", 0.8)
	p.CandidateLimit = getEnvOrDefaultInt("KAIWA_CANDIDATE_LIMIT", 50)
	p.CostPerKTokensUSD = getEnvOrDefaultFloat("KAIWA_COST_PER_KTOKENS_USD", 0.002)
	p.MetricsAddr = getEnvOrDefault("KAIWA_METRICS_ADDR", "")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver %q", p.Driver)
	}

	if p.MatchThreshold < 0 || p.MatchThreshold > 1 {
		return errors.Errorf("match threshold %v outside [0,1]", p.MatchThreshold)
	}
	if p.CandidateLimit <= 0 {
		p.CandidateLimit = 50
	}

	if p.Driver == "sqlite" {
		if p.Data == "" {
			p.Data = "."
		}
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			slog.Error("failed to check data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
		p.Data = dataDir
		if p.DSN == "" {
			p.DSN = filepath.Join(dataDir, fmt.Sprintf("kaiwa_%s.db", p.Mode))
		}
	} else if p.DSN == "" {
		return errors.New("dsn required for postgres driver")
	}

	return nil
}
