package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ppiankov/linkvet/internal/model"
)

// defaultBurst is used when no positive burst is configured
const defaultBurst = 5

// Limiter spaces out page fetches per host. Each host gets its own token
// bucket, created on first use from the default rate or a per-host override.
type Limiter struct {
	mu           sync.RWMutex
	hosts        map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a per-host limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = defaultBurst
	}

	return &Limiter{
		hosts:        make(map[string]*rate.Limiter),
		defaultRate:  limitFor(requestsPerSecond),
		defaultBurst: burst,
	}
}

// NewLimiterFromConfig builds a limiter with the configured default rate and
// the per-host overrides from rate_limiting.domains
func NewLimiterFromConfig(cfg model.RateLimitingConfig) *Limiter {
	l := NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize)
	for host, rps := range cfg.Domains {
		l.SetDomainRate(host, rps, 0)
	}
	return l
}

// SetDomainRate overrides the rate for one host. A non-positive burst keeps
// the default burst; a non-positive rate leaves the host unlimited.
func (l *Limiter) SetDomainRate(host string, requestsPerSecond float64, burst int) {
	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.hosts[strings.ToLower(host)] = rate.NewLimiter(limitFor(requestsPerSecond), burst)
}

// Wait blocks until the URL's host has a token or ctx ends
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := hostOf(rawURL)
	if err != nil {
		return err
	}
	return l.forHost(host).Wait(ctx)
}

// WaitWithDelay waits for a token, then for an extra delay such as a
// robots.txt Crawl-delay
func (l *Limiter) WaitWithDelay(ctx context.Context, rawURL string, delay time.Duration) error {
	if err := l.Wait(ctx, rawURL); err != nil {
		return err
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *Limiter) forHost(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, ok := l.hosts[host]
	l.mu.RUnlock()
	if ok {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Another goroutine may have created it between the locks
	if limiter, ok := l.hosts[host]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.hosts[host] = limiter
	return limiter
}

// hostOf returns the lowercased host of a URL without its port
func hostOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	return strings.ToLower(parsed.Hostname()), nil
}

func limitFor(requestsPerSecond float64) rate.Limit {
	if requestsPerSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(requestsPerSecond)
}
