package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/linkvet/internal/llm"
	"github.com/ppiankov/linkvet/internal/logging"
)

// Classifier asks a language model whether page text is relevant to the
// configured company's products.
type Classifier struct {
	provider llm.Provider
	prompt   llm.PromptConfig
	logger   logging.Logger
}

// NewClassifier creates a Classifier over provider with a fixed prompt
func NewClassifier(provider llm.Provider, prompt llm.PromptConfig, logger logging.Logger) *Classifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Classifier{
		provider: provider,
		prompt:   prompt,
		logger:   logger,
	}
}

// Available reports whether the model provider is configured and reachable
func (c *Classifier) Available(ctx context.Context) error {
	if c.provider == nil {
		return ErrProviderUnavailable
	}
	if !c.provider.IsAvailable(ctx) {
		return fmt.Errorf("%w: %s", ErrProviderUnavailable, c.provider.Name())
	}
	return nil
}

// ClassifyRelevance returns the model's verdict for text. Every failure is a
// *ClassificationFailedError; the call is never retried.
func (c *Classifier) ClassifyRelevance(ctx context.Context, text string) (bool, error) {
	if c.provider == nil {
		return false, &ClassificationFailedError{Cause: errors.New("no LLM provider configured")}
	}

	judgment, err := c.provider.Judge(ctx, llm.JudgeRequest{
		SystemPrompt: c.prompt.SystemPrompt(),
		Content:      text,
		Schema:       c.prompt.Schema(),
		RunName:      llm.RelevancyRunName,
	})
	if err != nil {
		return false, &ClassificationFailedError{Cause: err}
	}
	if judgment == nil {
		return false, &ClassificationFailedError{Cause: llm.ErrInvalidJudgment}
	}

	c.logger.Debug("relevancy judgment",
		logging.String("run", llm.RelevancyRunName),
		logging.String("provider", c.provider.Name()),
		logging.Bool("relevant", judgment.Relevant),
		logging.String("reasoning", judgment.Reasoning),
	)

	return judgment.Relevant, nil
}
