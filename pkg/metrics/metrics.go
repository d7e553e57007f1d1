// Package metrics provides Prometheus metrics for the fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MatchRunsTotal tracks auto-match runs by outcome
	MatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "matching",
			Name:      "runs_total",
			Help:      "Total number of auto-match runs by outcome",
		},
		[]string{"outcome"},
	)

	// MatchRunDuration tracks how long a full find-and-save run takes
	MatchRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "matching",
			Name:      "run_duration_seconds",
			Help:      "Duration of auto-match runs in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// CandidatesScored tracks candidates scored by the finder
	CandidatesScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "matching",
			Name:      "candidates_scored_total",
			Help:      "Total number of candidate reports scored",
		},
	)

	// FinalScores tracks the distribution of fused scores
	FinalScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "matching",
			Name:      "final_score",
			Help:      "Distribution of fused candidate scores",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// MatchTransitionsTotal tracks match lifecycle transitions
	MatchTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Total number of match status transitions",
		},
		[]string{"status"},
	)

	// NotificationsTotal tracks notifications created by type
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Total number of notifications created",
		},
		[]string{"type"},
	)

	// ImageFingerprintsTotal tracks fingerprint lookups by source
	ImageFingerprintsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "imagesim",
			Name:      "fingerprints_total",
			Help:      "Total image fingerprint lookups by source (cache, computed, failed)",
		},
		[]string{"source"},
	)

	// ImageFetchDuration tracks image download and decode time
	ImageFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "imagesim",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of image download and decode in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// KafkaMessagesTotal tracks consumed messages by result
	KafkaMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "messages_total",
			Help:      "Total number of consumed Kafka messages by result",
		},
		[]string{"event_type", "result"},
	)
)
