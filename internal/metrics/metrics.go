package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Oracle and pipeline Prometheus metrics.
var (
	OracleRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsift",
			Name:      "oracle_requests_total",
			Help:      "Total number of encoder/verifier requests",
		},
		[]string{"oracle", "backend", "status"},
	)

	OracleRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsift",
			Name:      "oracle_request_duration_seconds",
			Help:      "Encoder/verifier request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"oracle", "backend"},
	)

	EmbeddingInputsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsift",
			Name:      "embedding_inputs_total",
			Help:      "Total texts sent to the encoder",
		},
		[]string{"backend"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsift",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"backend", "type"},
	)

	DocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsift",
			Name:      "documents_total",
			Help:      "Documents processed, by final status",
		},
		[]string{"status"},
	)

	SectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsift",
			Name:      "sections_total",
			Help:      "Sections seen by the selection loop, by outcome",
		},
		[]string{"outcome"}, // "selected" / "below_floor" / "duplicate" / "vetoed"
	)
)

var registerOnce sync.Once

// RegisterMetrics registers all collectors with the default registry. Safe to
// call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			OracleRequestsTotal,
			OracleRequestDuration,
			EmbeddingInputsTotal,
			EmbeddingTokensTotal,
			DocumentsTotal,
			SectionsTotal,
			httpRequestDuration,
			httpRequestsTotal,
		)
	})
}
