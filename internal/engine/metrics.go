package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TrainingRunsTotal counts training runs by outcome (ok, empty, error).
	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travel_training_runs_total",
			Help: "Total number of recommender training runs",
		},
		[]string{"outcome"},
	)

	// TrainingDuration tracks how long a full training run takes.
	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "travel_training_duration_seconds",
			Help:    "Duration of recommender training runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)

	// TrainingExamples is the size of the balanced set used by the last run.
	TrainingExamples = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "travel_training_examples",
			Help: "Number of balanced examples used by the last training run",
		},
	)

	// VocabularySize is the number of places known to the last trained model.
	VocabularySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "travel_vocabulary_size",
			Help: "Number of distinct places in the current label vocabulary",
		},
	)

	// RecommendationsTotal counts recommendation requests by outcome (ok, untrained, error).
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travel_recommendations_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"outcome"},
	)
)
