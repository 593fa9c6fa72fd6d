package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/linkvet/internal/logging"
	"github.com/ppiankov/linkvet/internal/model"
	"github.com/ppiankov/linkvet/internal/util"
)

// Scraper is the primary scrape backend
type Scraper interface {
	Scrape(ctx context.Context, url string) ([]model.Document, error)
}

// NoopScraper is used when no scrape backend is configured
type NoopScraper struct{}

// Scrape always returns no documents
func (NoopScraper) Scrape(context.Context, string) ([]model.Document, error) {
	return nil, nil
}

// NewScraper selects the scrape backend. Without an API key the backend is
// disabled and every request is served by the plain-text fetch.
func NewScraper(cfg model.ScrapeConfig, httpCfg model.HTTPConfig, logger logging.Logger) (Scraper, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return NoopScraper{}, nil
	case "firecrawl":
		if cfg.APIKey == "" {
			if logger != nil {
				logger.Info("no firecrawl API key, scrape backend disabled")
			}
			return NoopScraper{}, nil
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy)
		return NewFirecrawlScraper(cfg.APIKey, cfg.BaseURL, cfg.Timeout, transport), nil
	default:
		return nil, fmt.Errorf("unknown scrape provider: %s (supported: firecrawl)", cfg.Provider)
	}
}

// DefaultFirecrawlURL is the hosted Firecrawl API
const DefaultFirecrawlURL = "https://api.firecrawl.dev"

// FirecrawlScraper scrapes pages through the Firecrawl API in scrape mode
type FirecrawlScraper struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewFirecrawlScraper creates a Firecrawl-backed scraper
func NewFirecrawlScraper(apiKey, baseURL string, timeout time.Duration, transport http.RoundTripper) *FirecrawlScraper {
	if baseURL == "" {
		baseURL = DefaultFirecrawlURL
	}
	return &FirecrawlScraper{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

type firecrawlRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type firecrawlResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string         `json:"markdown"`
		Metadata map[string]any `json:"metadata"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// Scrape fetches url as markdown. An unsuccessful scrape yields no documents.
func (s *FirecrawlScraper) Scrape(ctx context.Context, url string) ([]model.Document, error) {
	body, err := json.Marshal(firecrawlRequest{
		URL:             url,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("firecrawl request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("firecrawl error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result firecrawlResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if !result.Success || strings.TrimSpace(result.Data.Markdown) == "" {
		return nil, nil
	}

	return []model.Document{{
		PageContent: result.Data.Markdown,
		Metadata:    result.Data.Metadata,
	}}, nil
}
