package retrieval

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stages reported to a Monitor.
const (
	StageCandidates = "candidates"
	StageFilter     = "temporal_filter"
	StageRerank     = "rerank"
	StageFusion     = "fusion"
)

// Capability labels reported to a Monitor.
const (
	CapabilityEmbedder     = "embedder"
	CapabilityCrossEncoder = "cross_encoder"
	CapabilityJudge        = "judge"
	CapabilityIntent       = "intent"
)

// Monitor provides hooks to observe the retrieval process.
// Implementations must be safe for concurrent use.
type Monitor interface {
	Start(query, domain string)
	StageCompleted(stage string, elapsed time.Duration)
	CapabilityFailed(capability string, err error)
	Finish(domain string, results []Result)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                        {}
func (n *noopMonitor) StageCompleted(_ string, _ time.Duration) {}
func (n *noopMonitor) CapabilityFailed(_ string, _ error)       {}
func (n *noopMonitor) Finish(_ string, _ []Result)              {}

// PrometheusMonitor records retrieval metrics.
type PrometheusMonitor struct {
	requests    *prometheus.CounterVec
	stages      *prometheus.HistogramVec
	failures    *prometheus.CounterVec
	resultCount prometheus.Histogram
}

var _ Monitor = (*PrometheusMonitor)(nil)

// NewPrometheusMonitor registers retrieval metrics with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusMonitor(reg prometheus.Registerer) *PrometheusMonitor {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &PrometheusMonitor{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chronorag_retrieval_requests_total",
			Help: "Retrieval requests by domain",
		}, []string{"domain"}),
		stages: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chronorag_retrieval_stage_duration_seconds",
			Help:    "Retrieval stage latency",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"stage"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chronorag_capability_failures_total",
			Help: "Capability calls that failed and were dropped",
		}, []string{"capability"}),
		resultCount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "chronorag_retrieval_results",
			Help:    "Results returned per request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 60},
		}),
	}
}

func (m *PrometheusMonitor) Start(_, domain string) {
	m.requests.WithLabelValues(domain).Inc()
}

func (m *PrometheusMonitor) StageCompleted(stage string, elapsed time.Duration) {
	m.stages.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (m *PrometheusMonitor) CapabilityFailed(capability string, _ error) {
	m.failures.WithLabelValues(capability).Inc()
}

func (m *PrometheusMonitor) Finish(_ string, results []Result) {
	m.resultCount.Observe(float64(len(results)))
}
