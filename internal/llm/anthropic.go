package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ppiankov/linkvet/internal/model"
	"github.com/ppiankov/linkvet/internal/util"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude models.
// Structured output is obtained by forcing a single tool call whose input schema is the relevancy schema.
type AnthropicProvider struct {
	client anthropic.Client
	config Config
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = defaultTimeout * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		// Failed calls surface to the caller; no silent retries.
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		}),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(config.BaseURL, "/")+"/"))
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable checks if the provider is properly configured
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.Models.List(ctx, anthropic.ModelListParams{})
	return err == nil
}

// Judge asks Claude for a relevancy judgment via a forced tool call
func (p *AnthropicProvider) Judge(ctx context.Context, req JudgeRequest) (*model.RelevancyJudgment, error) {
	modelName := p.config.model(req, DefaultAnthropicModel)
	schema := req.Schema

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(modelName),
		MaxTokens:   int64(p.config.maxTokens(req)),
		Temperature: anthropic.Float(0),
		System: []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Content)),
		},
		Tools: []anthropic.ToolUnionParam{
			{
				OfTool: &anthropic.ToolParam{
					Name:        schema.Name,
					Description: anthropic.String(schema.Description),
					InputSchema: anthropic.ToolInputSchemaParam{
						Properties: schema.Properties(),
						Required:   schema.Required(),
					},
				},
			},
		},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: schema.Name},
		},
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type == "tool_use" && block.Name == schema.Name {
			return ParseJudgment(block.Input)
		}
	}

	return nil, fmt.Errorf("%w: no %q tool call in anthropic response", ErrInvalidJudgment, schema.Name)
}
