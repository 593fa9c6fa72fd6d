package llm

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/ppiankov/linkvet/internal/model"
	"github.com/ppiankov/linkvet/internal/util"
)

// OpenAIProvider implements the Provider interface for OpenAI models
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = defaultTimeout * time.Second
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Judge asks the model for a relevancy judgment using a strict JSON schema response format
func (p *OpenAIProvider) Judge(ctx context.Context, req JudgeRequest) (*model.RelevancyJudgment, error) {
	schema := req.Schema

	chatReq := openai.ChatCompletionRequest{
		Model: p.config.model(req, openai.GPT4oMini),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Content,
			},
		},
		MaxTokens: p.config.maxTokens(req),
		// A literal 0 is dropped by omitempty and the API would default to 1.
		Temperature: math.SmallestNonzeroFloat32,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        schema.Name,
				Description: schema.Description,
				Schema:      openAISchema(schema),
				Strict:      true,
			},
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return nil, fmt.Errorf("OpenAI refused: %s", msg.Refusal)
	}

	return ParseJudgment([]byte(msg.Content))
}

func openAISchema(s Schema) *jsonschema.Definition {
	return &jsonschema.Definition{
		Type:        jsonschema.Object,
		Description: s.Description,
		Properties: map[string]jsonschema.Definition{
			"reasoning": {
				Type:        jsonschema.String,
				Description: s.ReasoningDescription,
			},
			"relevant": {
				Type:        jsonschema.Boolean,
				Description: s.RelevantDescription,
			},
		},
		Required:             s.Required(),
		AdditionalProperties: false,
	}
}
