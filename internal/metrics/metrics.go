package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for analyze requests.
const (
	OutcomeOK          = "ok"
	OutcomeStubConfig  = "stub_config"
	OutcomeStubUpload  = "stub_upload"
	OutcomeStubFailure = "stub_failure"
	OutcomeStubInvalid = "stub_invalid"
)

type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	llmDuration *prometheus.HistogramVec
	notes       prometheus.Histogram
}

// New registers the service collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snaptoflash_analyze_requests_total",
			Help: "Analyze requests by outcome.",
		}, []string{"outcome"}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "snaptoflash_llm_request_duration_seconds",
			Help:    "Latency of model calls by result.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"result"}),
		notes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "snaptoflash_notes_returned",
			Help:    "Notes returned per analyzed page.",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 40},
		}),
	}
	m.registry.MustRegister(m.requests, m.llmDuration, m.notes)
	return m
}

func (m *Metrics) ObserveRequest(outcome string, notes int) {
	m.requests.WithLabelValues(outcome).Inc()
	m.notes.Observe(float64(notes))
}

// ObserveLLM matches analyzer.LatencyObserver.
func (m *Metrics) ObserveLLM(result string, d time.Duration) {
	m.llmDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
