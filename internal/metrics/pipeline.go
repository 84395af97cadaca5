package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion and retrieval Prometheus metrics.
var (
	IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "highforce",
			Name:      "ingest_total",
			Help:      "Total ingestion calls by terminal status",
		},
		[]string{"source", "status"}, // status: "ingested" / "duplicate" / "error"
	)

	ChunksIndexedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "highforce",
			Name:      "chunks_indexed_total",
			Help:      "Total chunks written to the index",
		},
	)

	SupersededChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "highforce",
			Name:      "superseded_chunks_total",
			Help:      "Total chunks removed by thread supersession",
		},
	)

	SupersessionFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "highforce",
			Name:      "supersession_failures_total",
			Help:      "Supersession attempts that degraded to a no-op",
		},
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "highforce",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)

// RegisterPipelineMetrics registers ingestion/retrieval collectors. Called once
// from the composition root.
func RegisterPipelineMetrics() {
	prometheus.MustRegister(
		IngestTotal,
		ChunksIndexedTotal,
		SupersededChunksTotal,
		SupersessionFailuresTotal,
		SearchDuration,
	)
}
