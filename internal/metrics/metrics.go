package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	InvoicesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoices_processed_total",
			Help: "Total number of processed invoice uploads",
		},
		[]string{"provider", "status"},
	)

	ProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "invoice_processing_duration_seconds",
			Help:    "Duration of the extraction and validation pipeline in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	ConfidenceScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "invoice_confidence_score",
			Help:    "Validation confidence score of processed invoices",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)
)

func init() {
	prometheus.MustRegister(InvoicesProcessed, ProcessingDuration, ConfidenceScore)
}

// ObserveProcessing records one pipeline run.
func ObserveProcessing(provider, status string, duration time.Duration, score float64) {
	InvoicesProcessed.WithLabelValues(provider, status).Inc()
	ProcessingDuration.WithLabelValues(provider).Observe(duration.Seconds())
	ConfidenceScore.Observe(score)
}
