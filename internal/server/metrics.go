package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Verification outcomes recorded in linkvet_verifications_total
const (
	OutcomeRelevant             = "relevant"
	OutcomeNotRelevant          = "not_relevant"
	OutcomeFetchFailed          = "fetch_failed"
	OutcomeClassificationFailed = "classification_failed"
	OutcomeInvalid              = "invalid"
	OutcomeTimeout              = "timeout"
	OutcomeCanceled             = "canceled"
	OutcomeError                = "error"
)

// Metrics holds the node's Prometheus metrics
type Metrics struct {
	Verifications        *prometheus.CounterVec
	VerificationDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics registers metrics on a private registry so servers and tests do not collide
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &Metrics{
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "linkvet_verifications_total",
			Help: "Link verifications by outcome",
		}, []string{"outcome"}),
		VerificationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkvet_verification_duration_seconds",
			Help:    "Time to fetch and classify a single link",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		registry: reg,
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
