package llm

import (
	"context"

	"github.com/ppiankov/linkvet/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Judge asks the model for a structured relevancy judgment
	Judge(ctx context.Context, req JudgeRequest) (*model.RelevancyJudgment, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// JudgeRequest is the fixed two-message exchange sent to the model
type JudgeRequest struct {
	// SystemPrompt carries the static product context
	SystemPrompt string

	// Content is the fetched page text, passed verbatim as the user message
	Content string

	// Schema constrains the structured response
	Schema Schema

	// RunName labels the call in logs
	RunName string

	// Model overrides the configured model when set
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "anthropic", "openai", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, test servers)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

const (
	// DefaultAnthropicModel is used when no model is configured for anthropic
	DefaultAnthropicModel = "claude-3-5-sonnet-20241022"

	defaultMaxTokens = 1024
	defaultTimeout   = 60
)

func (c Config) model(req JudgeRequest, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}

func (c Config) maxTokens(req JudgeRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return defaultMaxTokens
}
