package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/linkvet/internal/cache"
	"github.com/ppiankov/linkvet/internal/logging"
	"github.com/ppiankov/linkvet/internal/model"
)

// ContentFetcher resolves a URL to page text: the scrape backend first,
// the plain-text fetch second.
type ContentFetcher struct {
	scraper Scraper
	text    TextFetcher
	cache   cache.Cache // nil disables caching
	logger  logging.Logger
}

// NewContentFetcher creates a ContentFetcher. A nil scraper disables the primary stage.
func NewContentFetcher(scraper Scraper, text TextFetcher, c cache.Cache, logger logging.Logger) *ContentFetcher {
	if scraper == nil {
		scraper = NoopScraper{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ContentFetcher{
		scraper: scraper,
		text:    text,
		cache:   c,
		logger:  logger,
	}
}

// FetchPageText returns the first non-empty text produced by the scrape
// backend or the plain-text fetch. Collaborator errors fall through to the
// next stage; if both stages yield nothing a *FetchFailedError is returned.
func (f *ContentFetcher) FetchPageText(ctx context.Context, url string) (string, error) {
	log := f.logger.With(logging.String("url", url))

	var key string
	if f.cache != nil {
		key = cache.CacheKey(url)
		if cached, ok := f.cache.Get(ctx, key); ok {
			log.Debug("page text cache hit")
			return string(cached), nil
		}
	}

	var causes []error
	for _, stage := range f.stages() {
		text, err := stage.fetch(ctx, url)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if err != nil {
			log.Warn("fetch stage failed", logging.String("stage", stage.name), logging.Error(err))
			causes = append(causes, fmt.Errorf("%s: %w", stage.name, err))
			continue
		}
		if text == "" {
			log.Debug("fetch stage returned no text", logging.String("stage", stage.name))
			continue
		}

		f.store(ctx, key, text)
		return text, nil
	}

	return "", &FetchFailedError{URL: url, Causes: causes}
}

type fetchStage struct {
	name  string
	fetch func(ctx context.Context, url string) (string, error)
}

// stages lists the fetch strategies in the order they are tried
func (f *ContentFetcher) stages() []fetchStage {
	stages := []fetchStage{{name: "scrape", fetch: f.scrape}}
	if f.text != nil {
		stages = append(stages, fetchStage{name: "plain", fetch: f.text.FetchText})
	}
	return stages
}

func (f *ContentFetcher) scrape(ctx context.Context, url string) (string, error) {
	docs, err := f.scraper.Scrape(ctx, url)
	if err != nil {
		return "", err
	}
	return joinDocuments(docs), nil
}

// store caches non-empty text; write failures only cost a future refetch
func (f *ContentFetcher) store(ctx context.Context, key, text string) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Set(ctx, key, []byte(text), 0); err != nil {
		f.logger.Warn("page text cache write failed", logging.String("key", key), logging.Error(err))
	}
}

// joinDocuments concatenates non-empty fragments with newlines
func joinDocuments(docs []model.Document) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.PageContent != "" {
			parts = append(parts, doc.PageContent)
		}
	}
	return strings.Join(parts, "\n")
}
