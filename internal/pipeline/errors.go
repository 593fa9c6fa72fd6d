package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed is matched by every *FetchFailedError
	ErrFetchFailed = errors.New("fetch failed")

	// ErrClassificationFailed is matched by every *ClassificationFailedError
	ErrClassificationFailed = errors.New("classification failed")

	// ErrProviderUnavailable reports a model provider that cannot serve requests
	ErrProviderUnavailable = errors.New("LLM provider unavailable")
)

// FetchFailedError reports that neither the scrape backend nor the plain-text
// fetch produced any text for URL.
type FetchFailedError struct {
	URL string
	// Causes holds collaborator errors seen along the way, if any
	Causes []error
}

func (e *FetchFailedError) Error() string {
	if len(e.Causes) == 0 {
		return fmt.Sprintf("failed to fetch contents for %s", e.URL)
	}
	return fmt.Sprintf("failed to fetch contents for %s: %v", e.URL, errors.Join(e.Causes...))
}

// Is makes errors.Is(err, ErrFetchFailed) true
func (e *FetchFailedError) Is(target error) bool {
	return target == ErrFetchFailed
}

// Unwrap exposes the collaborator errors
func (e *FetchFailedError) Unwrap() []error {
	return e.Causes
}

// ClassificationFailedError wraps a model call or response validation failure
type ClassificationFailedError struct {
	Cause error
}

func (e *ClassificationFailedError) Error() string {
	return fmt.Sprintf("classification failed: %v", e.Cause)
}

// Is makes errors.Is(err, ErrClassificationFailed) true
func (e *ClassificationFailedError) Is(target error) bool {
	return target == ErrClassificationFailed
}

// Unwrap returns the underlying cause
func (e *ClassificationFailedError) Unwrap() error {
	return e.Cause
}
