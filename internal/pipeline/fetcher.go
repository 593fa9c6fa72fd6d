package pipeline

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/publicsuffix"

	"github.com/ppiankov/linkvet/internal/logging"
	"github.com/ppiankov/linkvet/internal/model"
	"github.com/ppiankov/linkvet/internal/util"
	"github.com/ppiankov/linkvet/internal/worker"
)

// TextFetcher is the plain-text page fetch collaborator
type TextFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// HTTPTextFetcher fetches a page directly and reduces it to readable text
type HTTPTextFetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker // nil when robots.txt is ignored
	limiter    *worker.Limiter     // nil disables per-domain rate limiting
	logger     logging.Logger
}

// NewHTTPTextFetcher creates a text fetcher from the HTTP configuration
func NewHTTPTextFetcher(cfg model.HTTPConfig, limiter *worker.Limiter, logger logging.Logger) (*HTTPTextFetcher, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // opt-in via http.insecure_tls
	}

	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}

	f := &HTTPTextFetcher{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			Jar:       jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
		limiter:   limiter,
		logger:    logger,
	}
	if cfg.RespectRobots {
		f.robots = util.NewRobotsChecker(cfg.UserAgent, cfg.Timeout, transport)
	}

	return f, nil
}

// FetchText retrieves url and returns its readable text.
// A page disallowed by robots.txt yields empty text and no error.
func (f *HTTPTextFetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	if pageURL.Scheme != "http" && pageURL.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme: %q", pageURL.Scheme)
	}

	crawlDelay := f.checkRobots(ctx, rawURL)
	if crawlDelay < 0 {
		return "", nil
	}

	if f.limiter != nil {
		if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
			return "", fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,text/plain;q=0.8,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	// Read body with size limit
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return extractText(body, resp.Header.Get("Content-Type"), resp.Request.URL)
}

// checkRobots returns the crawl delay for rawURL, or -1 when robots.txt disallows it
func (f *HTTPTextFetcher) checkRobots(ctx context.Context, rawURL string) (delay time.Duration) {
	if f.robots == nil {
		return 0
	}
	allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
	if err != nil {
		f.logger.Debug("robots check failed", logging.String("url", rawURL), logging.Error(err))
		return 0
	}
	if !allowed {
		f.logger.Info("fetch disallowed by robots.txt", logging.String("url", rawURL))
		return -1
	}
	return crawlDelay
}

// extractText reduces a response body to plain text based on its content type
func extractText(body []byte, contentType string, pageURL *url.URL) (string, error) {
	mediaType := "text/html"
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = mt
		}
	}

	switch {
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return htmlToText(body, pageURL)
	case strings.HasPrefix(mediaType, "text/") || mediaType == "application/json":
		return strings.TrimSpace(string(body)), nil
	default:
		// Binary content has no text to verify
		return "", nil
	}
}

// htmlToText prefers readability's article text and falls back to the whole body
func htmlToText(body []byte, pageURL *url.URL) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return text, nil
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	return strings.Join(strings.Fields(doc.Find("body").Text()), " "), nil
}
