package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ppiankov/linkvet/internal/llm"
	"github.com/ppiankov/linkvet/internal/logging"
	"github.com/ppiankov/linkvet/internal/model"
)

func newTestVerifier(scraper Scraper, text TextFetcher, provider llm.Provider) *Verifier {
	fetcher := NewContentFetcher(scraper, text, nil, nil)
	classifier := NewClassifier(provider, llm.NewPromptConfig("", ""), nil)
	return NewVerifier(fetcher, classifier, logging.NewNop())
}

func TestVerify_FallbackRelevant(t *testing.T) {
	provider := &mockProvider{judgment: &model.RelevancyJudgment{Reasoning: "LangGraph agent", Relevant: true}}
	v := newTestVerifier(&stubScraper{}, &stubTextFetcher{text: "a LangGraph tutorial"}, provider)

	result, err := v.Verify(context.Background(), model.VerificationRequest{Link: "https://blog.example/post"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.RelevantLinks) != 1 || result.RelevantLinks[0] != "https://blog.example/post" {
		t.Errorf("Unexpected links %v", result.RelevantLinks)
	}
	if len(result.PageContents) != 1 || result.PageContents[0] != "a LangGraph tutorial" {
		t.Errorf("Unexpected contents %v", result.PageContents)
	}
	if provider.requests[0].Content != "a LangGraph tutorial" {
		t.Errorf("Classifier saw %q", provider.requests[0].Content)
	}
}

func TestVerify_NotRelevant(t *testing.T) {
	provider := &mockProvider{judgment: &model.RelevancyJudgment{Reasoning: "unrelated"}}
	v := newTestVerifier(&stubScraper{}, &stubTextFetcher{text: "gardening tips"}, provider)

	result, err := v.Verify(context.Background(), model.VerificationRequest{Link: "https://blog.example/garden"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.RelevantLinks == nil || result.PageContents == nil {
		t.Fatal("Expected non-nil empty slices")
	}
	if len(result.RelevantLinks) != 0 || len(result.PageContents) != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"relevantLinks":[],"pageContents":[]}` {
		t.Errorf("Unexpected JSON %s", data)
	}
}

func TestVerify_FetchFailedSkipsClassifier(t *testing.T) {
	provider := &mockProvider{judgment: &model.RelevancyJudgment{Relevant: true}}
	v := newTestVerifier(&stubScraper{}, &stubTextFetcher{}, provider)

	result, err := v.Verify(context.Background(), model.VerificationRequest{Link: "https://empty.example"})
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("Expected ErrFetchFailed, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected no result, got %+v", result)
	}
	if provider.calls() != 0 {
		t.Errorf("Classifier invoked %d times after fetch failure", provider.calls())
	}
}

func TestVerify_ClassificationFailed(t *testing.T) {
	provider := &mockProvider{err: errors.New("overloaded")}
	v := newTestVerifier(&stubScraper{docs: []model.Document{{PageContent: "text"}}}, nil, provider)

	_, err := v.Verify(context.Background(), model.VerificationRequest{Link: "https://x.example"})
	if !errors.Is(err, ErrClassificationFailed) {
		t.Fatalf("Expected ErrClassificationFailed, got %v", err)
	}
}

func TestVerify_EmptyLink(t *testing.T) {
	scraper := &stubScraper{}
	v := newTestVerifier(scraper, &stubTextFetcher{text: "x"}, &mockProvider{})

	for _, link := range []string{"", "   "} {
		_, err := v.Verify(context.Background(), model.VerificationRequest{Link: link})
		if !errors.Is(err, ErrEmptyLink) {
			t.Errorf("Expected ErrEmptyLink for %q, got %v", link, err)
		}
	}
	if scraper.calls.Load() != 0 {
		t.Error("No I/O expected for an empty link")
	}
}

func TestVerify_Concurrent(t *testing.T) {
	provider := &mockProvider{judgment: &model.RelevancyJudgment{Relevant: true}}
	v := newTestVerifier(&stubScraper{}, &stubTextFetcher{text: "page"}, provider)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			link := fmt.Sprintf("https://x.example/%d", i)
			result, err := v.Verify(context.Background(), model.VerificationRequest{Link: link})
			if err != nil {
				errs <- err
				return
			}
			if result.RelevantLinks[0] != link {
				errs <- fmt.Errorf("result for %s carried %s", link, result.RelevantLinks[0])
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestNewVerifierFromConfig_EndToEnd(t *testing.T) {
	// One server plays the scrape backend, the page host and the model
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/scrape":
			_, _ = w.Write([]byte(`{"success": false}`))
		case "/robots.txt":
			w.WriteHeader(http.StatusNotFound)
		case "/post":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("Tracing a RAG app with LangSmith"))
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models": []}`))
		case "/api/chat":
			var req struct {
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			relevant := len(req.Messages) == 2 && strings.Contains(req.Messages[1].Content, "LangSmith")
			content := fmt.Sprintf(`{"reasoning": "checked", "relevant": %t}`, relevant)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"message": map[string]string{"role": "assistant", "content": content},
				"done":    true,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cfg := model.DefaultConfig()
	cfg.Scrape.APIKey = "fc-test"
	cfg.Scrape.BaseURL = server.URL
	cfg.LLM.Provider = "ollama"
	cfg.LLM.Model = "llama3.1:8b"
	cfg.LLM.BaseURL = server.URL
	cfg.RateLimiting.RequestsPerSecond = 0

	v, err := NewVerifierFromConfig(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewVerifierFromConfig failed: %v", err)
	}

	if err := v.Ready(context.Background()); err != nil {
		t.Fatalf("Ready failed: %v", err)
	}

	result, err := v.Verify(context.Background(), model.VerificationRequest{Link: server.URL + "/post"})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !result.IsRelevant() || result.PageContents[0] != "Tracing a RAG app with LangSmith" {
		t.Errorf("Unexpected result %+v", result)
	}

	_, err = v.Verify(context.Background(), model.VerificationRequest{Link: server.URL + "/missing"})
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("Expected ErrFetchFailed for missing page, got %v", err)
	}
}

func TestVerifier_Ready(t *testing.T) {
	ready := newTestVerifier(nil, nil, &mockProvider{})
	if err := ready.Ready(context.Background()); err != nil {
		t.Errorf("Expected ready, got %v", err)
	}

	down := newTestVerifier(nil, nil, &mockProvider{down: true})
	if err := down.Ready(context.Background()); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("Expected ErrProviderUnavailable, got %v", err)
	}

	missing := newTestVerifier(nil, nil, nil)
	if err := missing.Ready(context.Background()); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("Expected ErrProviderUnavailable without a provider, got %v", err)
	}
}

func TestNewVerifierFromConfig_BadProvider(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "bard"

	if _, err := NewVerifierFromConfig(cfg, nil, nil); err == nil {
		t.Fatal("Expected error for unknown provider")
	}
}
