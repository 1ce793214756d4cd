// Package llm wraps the external text-generation collaborator behind a
// small interface. All providers speak the OpenAI-compatible protocol.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Turn is one prior exchange in the conversation history.
type Turn struct {
	Text   string
	IsUser bool
}

// CallStats represents statistics for a single generation call, used
// for cost tracking in the analytics layer.
type CallStats struct {
	// PromptTokens is the number of tokens in the input prompt.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the generated response.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the sum of prompt and completion tokens.
	TotalTokens int `json:"total_tokens"`

	// TotalDurationMs is the total wall-clock time for the request.
	TotalDurationMs int64 `json:"total_duration_ms"`
}

// Service is the text-generation service interface.
type Service interface {
	// Generate produces a reply for message given the conversation
	// history and system prompt. Failures are returned verbatim; the
	// cache layer decides what to do with them and never retries here.
	Generate(ctx context.Context, message string, history []Turn, systemPrompt string) (string, *CallStats, error)

	// Warmup sends a lightweight ping request to establish and warm
	// up the connection.
	Warmup(ctx context.Context)
}

// Config represents generation service configuration.
type Config struct {
	Provider    string // openai, deepseek, siliconflow, ollama
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 512
	Temperature float32 // default: 0.7
	Timeout     int     // request timeout in seconds (default: 120)

	// RequestsPerMinute throttles outbound calls when > 0. The limiter
	// waits, it does not reject.
	RequestsPerMinute int
}

type service struct {
	client      *openai.Client
	model       string
	provider    string
	maxTokens   int
	temperature float32
	timeout     int
	limiter     *rate.Limiter
}

// NewService creates a new generation Service.
func NewService(cfg *Config) (Service, error) {
	httpClient := newHTTPClient()

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.HTTPClient = httpClient

	switch cfg.Provider {
	case "deepseek":
		clientConfig.BaseURL = orDefault(cfg.BaseURL, "https://api.deepseek.com")
	case "siliconflow":
		clientConfig.BaseURL = orDefault(cfg.BaseURL, "https://api.siliconflow.cn/v1")
	case "ollama":
		clientConfig.BaseURL = orDefault(cfg.BaseURL, "http://localhost:11434/v1")
	case "openai":
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	default:
		// Generic fallback for any other OpenAI-compatible provider.
		slog.Info("using generic OpenAI-compatible provider", "provider", cfg.Provider)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}

	return &service{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		provider:    cfg.Provider,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
		limiter:     limiter,
	}, nil
}

func (s *service) Generate(ctx context.Context, message string, history []Turn, systemPrompt string) (string, *CallStats, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", nil, fmt.Errorf("generation rate limit wait: %w", err)
		}
	}

	slog.Debug("LLM: generate request",
		"model", s.model,
		"history_turns", len(history),
		"max_tokens", s.maxTokens,
	)

	startTime := time.Now()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages:    buildMessages(message, history, systemPrompt),
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("LLM: generate request failed", "error", err)
		return "", nil, fmt.Errorf("generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("LLM: empty response")
		return "", nil, fmt.Errorf("empty response from generator")
	}

	totalDuration := time.Since(startTime)
	stats := &CallStats{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		TotalDurationMs:  totalDuration.Milliseconds(),
	}

	slog.Debug("LLM: generate response received",
		"content_length", len(resp.Choices[0].Message.Content),
		"total_tokens", stats.TotalTokens,
		"duration_ms", stats.TotalDurationMs,
	)

	return resp.Choices[0].Message.Content, stats, nil
}

func (s *service) Warmup(ctx context.Context) {
	warmupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	startTime := time.Now()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   1,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Hi"},
		},
	}

	_, err := s.client.CreateChatCompletion(warmupCtx, req)
	if err != nil {
		slog.Warn("LLM: warmup ping failed (service will still work, first request may be slower)",
			"provider", s.provider,
			"error", err,
		)
		return
	}

	slog.Info("LLM: connection warmed up",
		"provider", s.provider,
		"duration_ms", time.Since(startTime).Milliseconds(),
	)
}

// buildMessages lays out system prompt, prior turns and the new user
// message in protocol order.
func buildMessages(message string, history []Turn, systemPrompt string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	for _, turn := range history {
		role := openai.ChatMessageRoleAssistant
		if turn.IsUser {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Text,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})
	return messages
}

func orDefault(value, def string) string {
	if value != "" {
		return value
	}
	return def
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
