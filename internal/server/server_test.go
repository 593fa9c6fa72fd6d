package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/linkvet/internal/logging"
	"github.com/ppiankov/linkvet/internal/model"
	"github.com/ppiankov/linkvet/internal/pipeline"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct {
	result *model.VerificationResult
	err    error
	// block waits for the context to end before returning
	block bool
}

func (s *stubVerifier) Verify(ctx context.Context, req model.VerificationRequest) (*model.VerificationResult, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.result, s.err
}

func newTestRouter(v Verifier) (*gin.Engine, *Metrics) {
	metrics := NewMetrics()
	return NewRouter(v, metrics, logging.NewNop(), time.Second), metrics
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestVerify_Relevant(t *testing.T) {
	router, _ := newTestRouter(&stubVerifier{result: model.Relevant("https://x.example", "page")})

	w := doJSON(t, router, http.MethodPost, "/v1/verify", `{"link": "https://x.example"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result model.VerificationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, []string{"https://x.example"}, result.RelevantLinks)
	assert.Equal(t, []string{"page"}, result.PageContents)
}

func TestVerify_NotRelevant(t *testing.T) {
	router, _ := newTestRouter(&stubVerifier{result: model.NotRelevant()})

	w := doJSON(t, router, http.MethodPost, "/v1/verify", `{"link": "https://x.example"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"relevantLinks": [], "pageContents": []}`, w.Body.String())
}

func TestVerify_Errors(t *testing.T) {
	tests := []struct {
		name       string
		verifier   *stubVerifier
		body       string
		wantStatus int
		wantKind   string
	}{
		{
			name:       "fetch failed",
			verifier:   &stubVerifier{err: &pipeline.FetchFailedError{URL: "https://x.example"}},
			body:       `{"link": "https://x.example"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   OutcomeFetchFailed,
		},
		{
			name:       "classification failed",
			verifier:   &stubVerifier{err: &pipeline.ClassificationFailedError{Cause: errors.New("overloaded")}},
			body:       `{"link": "https://x.example"}`,
			wantStatus: http.StatusBadGateway,
			wantKind:   OutcomeClassificationFailed,
		},
		{
			name:       "empty link",
			verifier:   &stubVerifier{},
			body:       `{"link": "  "}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "invalid_request",
		},
		{
			name:       "not a URL",
			verifier:   &stubVerifier{},
			body:       `{"link": "example.com/post"}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "invalid_request",
		},
		{
			name:       "deadline during classification",
			verifier:   &stubVerifier{err: &pipeline.ClassificationFailedError{Cause: context.DeadlineExceeded}},
			body:       `{"link": "https://x.example"}`,
			wantStatus: http.StatusGatewayTimeout,
			wantKind:   OutcomeTimeout,
		},
		{
			name:       "client canceled",
			verifier:   &stubVerifier{err: context.Canceled},
			body:       `{"link": "https://x.example"}`,
			wantStatus: statusClientClosedRequest,
			wantKind:   OutcomeCanceled,
		},
		{
			name:       "malformed body",
			verifier:   &stubVerifier{},
			body:       `{"link": `,
			wantStatus: http.StatusBadRequest,
			wantKind:   "invalid_request",
		},
		{
			name:       "timeout",
			verifier:   &stubVerifier{block: true},
			body:       `{"link": "https://slow.example"}`,
			wantStatus: http.StatusGatewayTimeout,
			wantKind:   OutcomeTimeout,
		},
		{
			name:       "unexpected",
			verifier:   &stubVerifier{err: errors.New("boom")},
			body:       `{"link": "https://x.example"}`,
			wantStatus: http.StatusInternalServerError,
			wantKind:   OutcomeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := NewMetrics()
			router := NewRouter(tt.verifier, metrics, logging.NewNop(), 50*time.Millisecond)

			w := doJSON(t, router, http.MethodPost, "/v1/verify", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantKind, resp.Kind)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

type readyVerifier struct {
	stubVerifier
	readyErr error
}

func (r *readyVerifier) Ready(context.Context) error {
	return r.readyErr
}

func TestReady(t *testing.T) {
	router, _ := newTestRouter(&readyVerifier{})
	w := doJSON(t, router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	router, _ = newTestRouter(&readyVerifier{readyErr: pipeline.ErrProviderUnavailable})
	w = doJSON(t, router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")

	// Verifiers without a readiness check are always ready
	router, _ = newTestRouter(&stubVerifier{})
	w = doJSON(t, router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVerify_Metrics(t *testing.T) {
	router, _ := newTestRouter(&stubVerifier{result: model.Relevant("https://x.example", "page")})

	for i := 0; i < 2; i++ {
		doJSON(t, router, http.MethodPost, "/v1/verify", `{"link": "https://x.example"}`)
	}

	w := doJSON(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `linkvet_verifications_total{outcome="relevant"} 2`)
	assert.Contains(t, string(body), "linkvet_verification_duration_seconds_count 2")
}

func TestExtract(t *testing.T) {
	router, _ := newTestRouter(&stubVerifier{})

	w := doJSON(t, router, http.MethodPost, "/v1/extract",
		`{"text": "see https://x.com/langchain/status/1839023 and https://blog.langchain.dev/post"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp extractResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"https://x.com/langchain/status/1839023", "https://blog.langchain.dev/post"}, resp.URLs)
	assert.Equal(t, []string{"1839023"}, resp.TweetIDs)
}

func TestExtract_Slack(t *testing.T) {
	router, _ := newTestRouter(&stubVerifier{})

	w := doJSON(t, router, http.MethodPost, "/v1/extract",
		`{"text": "hey <@U123> check <https://github.com/langchain-ai/langgraph|langgraph> and https://plain.example", "slack": true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"urls": ["https://github.com/langchain-ai/langgraph"], "tweetIds": []}`, w.Body.String())
}

func TestExtract_NoMatches(t *testing.T) {
	router, _ := newTestRouter(&stubVerifier{})

	w := doJSON(t, router, http.MethodPost, "/v1/extract", `{"text": "nothing here"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"urls": [], "tweetIds": []}`, w.Body.String())
}

func TestValidateDate(t *testing.T) {
	router, _ := newTestRouter(&stubVerifier{})

	w := doJSON(t, router, http.MethodPost, "/v1/dates/validate", `{"date": "12/9/2024 06:15 PM PST"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid": true, "time": "2024-12-10T02:15:00Z"}`, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/v1/dates/validate", `{"date": "tomorrow"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid": false}`, w.Body.String())
}

func TestHealthAndRunID(t *testing.T) {
	router, _ := newTestRouter(&stubVerifier{})

	w := doJSON(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set("X-Request-ID", "graph-run-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "graph-run-42", rec.Header().Get("X-Request-ID"))
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RunIDMiddleware(logging.NewNop()), RecoveryMiddleware(logging.NewNop()))
	router.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := doJSON(t, router, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal")
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	srv := New(model.ServerConfig{Addr: "127.0.0.1:0"}, &stubVerifier{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
