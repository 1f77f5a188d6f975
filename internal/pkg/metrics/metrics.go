package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AssessmentsTotal counts completed assessments by risk level.
	AssessmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraud_assessments_total",
		Help: "Total number of completed fraud assessments",
	}, []string{"risk_level"})

	// DegradedAssessmentsTotal counts fail-open assessments produced after an
	// internal fault.
	DegradedAssessmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fraud_degraded_assessments_total",
		Help: "Total number of degraded fail-open assessments",
	})

	// AssessmentDuration observes end-to-end assessment latency.
	AssessmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fraud_assessment_duration_seconds",
		Help:    "Fraud assessment latency",
		Buckets: prometheus.DefBuckets,
	})

	// ScorerFallbacksTotal counts primary scorer failures that fell back to
	// the deterministic scorer.
	ScorerFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fraud_scorer_fallbacks_total",
		Help: "Total number of model scorer failures handled by the fallback scorer",
	})

	// PersistenceFailuresTotal counts assessments that could not be saved.
	PersistenceFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fraud_persistence_failures_total",
		Help: "Total number of assessment save failures",
	})

	// PublishFailuresTotal counts event publish failures by topic.
	PublishFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraud_publish_failures_total",
		Help: "Total number of event publish failures",
	}, []string{"topic"})

	// PreflightDenialsTotal counts pre-flight checks that did not allow the
	// request outright.
	PreflightDenialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraud_preflight_denials_total",
		Help: "Total number of pre-flight checks requiring auth or denying the request",
	}, []string{"outcome"})
)
