package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/linkvet/internal/cache"
	"github.com/ppiankov/linkvet/internal/llm"
	"github.com/ppiankov/linkvet/internal/logging"
	"github.com/ppiankov/linkvet/internal/model"
	"github.com/ppiankov/linkvet/internal/worker"
)

// FetchRunName labels the page fetch step in logs
const FetchRunName = "get-url-contents"

// ErrEmptyLink is returned for a request without a link
var ErrEmptyLink = errors.New("link is required")

// PageFetcher resolves a URL to page text
type PageFetcher interface {
	FetchPageText(ctx context.Context, url string) (string, error)
}

// RelevanceClassifier judges page text
type RelevanceClassifier interface {
	ClassifyRelevance(ctx context.Context, text string) (bool, error)
}

// availabilityChecker is implemented by classifiers that can check their backend
type availabilityChecker interface {
	Available(ctx context.Context) error
}

// Verifier orchestrates fetch, classify and result shaping for one link.
// It holds no per-call state and is safe for concurrent use.
type Verifier struct {
	fetcher    PageFetcher
	classifier RelevanceClassifier
	logger     logging.Logger
}

// NewVerifier wires a Verifier from its two collaborators
func NewVerifier(fetcher PageFetcher, classifier RelevanceClassifier, logger logging.Logger) *Verifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Verifier{
		fetcher:    fetcher,
		classifier: classifier,
		logger:     logger,
	}
}

// Verify returns the link and its text if the text is relevant, and an empty
// result otherwise. FetchFailed and ClassificationFailed errors propagate
// unchanged; the classifier is never called when the fetch fails.
func (v *Verifier) Verify(ctx context.Context, req model.VerificationRequest) (*model.VerificationResult, error) {
	link := strings.TrimSpace(req.Link)
	if link == "" {
		return nil, ErrEmptyLink
	}

	log := logging.FromContext(ctx, v.logger).With(logging.String("url", link))
	start := time.Now()

	text, err := v.fetcher.FetchPageText(ctx, link)
	if err != nil {
		log.Info("fetch failed", logging.String("run", FetchRunName), logging.Error(err))
		return nil, err
	}
	log.Debug("fetched page text", logging.String("run", FetchRunName), logging.Int("bytes", len(text)))

	relevant, err := v.classifier.ClassifyRelevance(ctx, text)
	if err != nil {
		log.Warn("classification failed", logging.Error(err))
		return nil, err
	}

	log.Info("link verified",
		logging.Bool("relevant", relevant),
		logging.Duration("duration", time.Since(start)),
	)

	if !relevant {
		return model.NotRelevant(), nil
	}
	return model.Relevant(link, text), nil
}

// Ready reports whether the classifier's backend can take requests.
// Classifiers that cannot check their backend are assumed ready.
func (v *Verifier) Ready(ctx context.Context) error {
	if checker, ok := v.classifier.(availabilityChecker); ok {
		return checker.Available(ctx)
	}
	return nil
}

// NewVerifierFromConfig builds the production Verifier: Firecrawl (when a key
// is configured) then direct HTTP fetch, an optional cache, and the configured
// LLM provider.
func NewVerifierFromConfig(cfg *model.Config, c cache.Cache, logger logging.Logger) (*Verifier, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	limiter := worker.NewLimiterFromConfig(cfg.RateLimiting)
	textFetcher, err := NewHTTPTextFetcher(cfg.HTTP, limiter, logger.With(logging.String("component", "text-fetcher")))
	if err != nil {
		return nil, fmt.Errorf("create text fetcher: %w", err)
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}

	scraper, err := NewScraper(cfg.Scrape, cfg.HTTP, logger)
	if err != nil {
		return nil, err
	}

	fetcher := NewContentFetcher(scraper, textFetcher, c, logger.With(logging.String("component", "fetcher")))
	classifier := NewClassifier(provider, llm.PromptConfigFromModel(cfg.Prompt), logger.With(logging.String("component", "classifier")))

	return NewVerifier(fetcher, classifier, logger), nil
}
