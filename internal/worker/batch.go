package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/linkvet/internal/model"
)

// Verifier defines the interface for verifying a single link
type Verifier interface {
	Verify(ctx context.Context, req model.VerificationRequest) (*model.VerificationResult, error)
}

// VerifyJob represents a link verification job. Fetch rate limiting happens
// inside the verifier, per host.
type VerifyJob struct {
	Index    int
	URL      string
	Verifier Verifier
}

// Execute executes the verification job
func (j *VerifyJob) Execute(ctx context.Context) Result {
	result, err := j.Verifier.Verify(ctx, model.VerificationRequest{Link: j.URL})
	return &VerifyResult{
		Index:  j.Index,
		URL:    j.URL,
		Result: result,
		Error:  err,
	}
}

// VerifyResult represents the result of a verification job
type VerifyResult struct {
	Index  int                       `json:"-"`
	URL    string                    `json:"url"`
	Result *model.VerificationResult `json:"result,omitempty"`
	Error  error                     `json:"-"`
}

// GetError returns the error from the verification
func (r *VerifyResult) GetError() error {
	return r.Error
}

// Relevant reports whether the link passed verification
func (r *VerifyResult) Relevant() bool {
	return r.Error == nil && r.Result.IsRelevant()
}

// BatchProcessor verifies multiple URLs concurrently
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(verifier Verifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// ProcessURLs verifies URLs concurrently and returns results in input order.
// URLs not started before ctx is cancelled carry the context error.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*VerifyResult {
	if len(urls) == 0 {
		return []*VerifyResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	defer pool.Shutdown()

	go func() {
		defer pool.Close()
		for i, url := range urls {
			job := &VerifyJob{
				Index:    i,
				URL:      url,
				Verifier: b.verifier,
			}
			if !pool.Submit(job) {
				return
			}
		}
	}()

	results := make([]*VerifyResult, len(urls))
	for _, result := range pool.Wait() {
		r := result.(*VerifyResult)
		results[r.Index] = r
	}

	for i, r := range results {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			results[i] = &VerifyResult{Index: i, URL: urls[i], Error: err}
		}
	}

	return results
}

// MergeResults concatenates the relevant results in order, the way the
// calling graph appends node output to its state
func MergeResults(results []*VerifyResult) *model.VerificationResult {
	merged := model.NotRelevant()
	for _, r := range results {
		if !r.Relevant() {
			continue
		}
		merged.RelevantLinks = append(merged.RelevantLinks, r.Result.RelevantLinks...)
		merged.PageContents = append(merged.PageContents, r.Result.PageContents...)
	}
	return merged
}

// ReadURLsFromFile reads URLs from a file (one per line)
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
