package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/linkvet/internal/extract"
	"github.com/ppiankov/linkvet/internal/logging"
	"github.com/ppiankov/linkvet/internal/model"
	"github.com/ppiankov/linkvet/internal/pipeline"
)

// Verifier verifies a single link
type Verifier interface {
	Verify(ctx context.Context, req model.VerificationRequest) (*model.VerificationResult, error)
}

// ReadinessChecker is implemented by verifiers that can check their model backend
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// statusClientClosedRequest is the de facto status for a request the client abandoned
const statusClientClosedRequest = 499

// readyTimeout bounds the readiness check's call to the model provider
const readyTimeout = 5 * time.Second

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type extractRequest struct {
	Text  string `json:"text"`
	Slack bool   `json:"slack"`
}

type extractResponse struct {
	URLs     []string `json:"urls"`
	TweetIDs []string `json:"tweetIds"`
}

type dateRequest struct {
	Date string `json:"date"`
}

type dateResponse struct {
	Valid bool   `json:"valid"`
	Time  string `json:"time,omitempty"`
}

// Handler serves the node's HTTP endpoints
type Handler struct {
	verifier       Verifier
	metrics        *Metrics
	logger         logging.Logger
	requestTimeout time.Duration
}

// NewHandler creates a Handler; a zero requestTimeout leaves the deadline to the client
func NewHandler(verifier Verifier, metrics *Metrics, logger logging.Logger, requestTimeout time.Duration) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		verifier:       verifier,
		metrics:        metrics,
		logger:         logger,
		requestTimeout: requestTimeout,
	}
}

// Register mounts the handler's routes on router
func (h *Handler) Register(router gin.IRouter) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	v1 := router.Group("/v1")
	v1.POST("/verify", h.Verify)
	v1.POST("/extract", h.Extract)
	v1.POST("/dates/validate", h.ValidateDate)
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the model provider is reachable
func (h *Handler) Ready(c *gin.Context) {
	checker, ok := h.verifier.(ReadinessChecker)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	if err := checker.Ready(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Verify runs one link through fetch and classification
func (h *Handler) Verify(c *gin.Context) {
	var req model.VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.count(OutcomeInvalid)
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error(), Kind: "invalid_request"})
		return
	}
	if strings.TrimSpace(req.Link) == "" {
		h.count(OutcomeInvalid)
		c.JSON(http.StatusBadRequest, errorResponse{Error: pipeline.ErrEmptyLink.Error(), Kind: "invalid_request"})
		return
	}
	if !extract.IsURL(req.Link) {
		h.count(OutcomeInvalid)
		c.JSON(http.StatusBadRequest, errorResponse{Error: "link must be an absolute http(s) URL", Kind: "invalid_request"})
		return
	}

	ctx := c.Request.Context()
	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := h.verifier.Verify(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		status, kind := classifyError(err)
		h.count(kind)
		h.observe(elapsed)
		_ = c.Error(err)
		c.JSON(status, errorResponse{Error: err.Error(), Kind: kind})
		return
	}

	outcome := OutcomeNotRelevant
	if result.IsRelevant() {
		outcome = OutcomeRelevant
	}
	h.count(outcome)
	h.observe(elapsed)

	c.JSON(http.StatusOK, result)
}

// Extract pulls URLs and tweet ids out of free text or a Slack message
func (h *Handler) Extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error(), Kind: "invalid_request"})
		return
	}

	urls := extract.ExtractURLs(req.Text)
	if req.Slack {
		urls = extract.ExtractURLsFromSlackText(req.Text)
	}

	resp := extractResponse{URLs: []string{}, TweetIDs: []string{}}
	resp.URLs = append(resp.URLs, urls...)
	resp.TweetIDs = append(resp.TweetIDs, extract.ExtractTweetIDs(urls)...)

	c.JSON(http.StatusOK, resp)
}

// ValidateDate checks a "M/D/YYYY h:mm AM|PM TZ" string and returns its UTC instant
func (h *Handler) ValidateDate(c *gin.Context) {
	var req dateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error(), Kind: "invalid_request"})
		return
	}

	t, err := extract.DateFromTimezoneDateString(req.Date)
	if err != nil {
		c.JSON(http.StatusOK, dateResponse{Valid: false})
		return
	}

	c.JSON(http.StatusOK, dateResponse{Valid: true, Time: t.UTC().Format(time.RFC3339)})
}

func (h *Handler) count(outcome string) {
	if h.metrics != nil {
		h.metrics.Verifications.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) observe(elapsed time.Duration) {
	if h.metrics != nil {
		h.metrics.VerificationDuration.Observe(elapsed.Seconds())
	}
}

// classifyError maps verification errors to a status code and outcome kind.
// Context errors come first: a deadline hit inside the model call is a timeout.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, OutcomeTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, OutcomeCanceled
	case errors.Is(err, pipeline.ErrFetchFailed):
		return http.StatusUnprocessableEntity, OutcomeFetchFailed
	case errors.Is(err, pipeline.ErrClassificationFailed):
		return http.StatusBadGateway, OutcomeClassificationFailed
	case errors.Is(err, pipeline.ErrEmptyLink):
		return http.StatusBadRequest, OutcomeInvalid
	default:
		return http.StatusInternalServerError, OutcomeError
	}
}
