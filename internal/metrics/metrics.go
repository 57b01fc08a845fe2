// Package metrics exposes Prometheus collectors for the assessment service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AssessmentsTotal counts finished pipeline runs by final status.
	AssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medsage_assessments_total",
			Help: "Total number of assessment runs by final status",
		},
		[]string{"status"},
	)

	// StageDuration tracks wall time per pipeline stage.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medsage_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	// StageFailures counts stage errors that aborted a run.
	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medsage_stage_failures_total",
			Help: "Total number of aborted runs by failing stage",
		},
		[]string{"stage"},
	)

	// LLMRequests counts Gemini API calls by operation and outcome.
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medsage_llm_requests_total",
			Help: "Total number of Gemini API calls",
		},
		[]string{"operation", "status"},
	)

	// LLMRequestDuration tracks Gemini API call latency.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medsage_llm_request_duration_seconds",
			Help:    "Gemini API call duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	// InterventionsTotal counts review tickets opened by reason.
	InterventionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medsage_interventions_total",
			Help: "Total number of intervention tickets opened by reason",
		},
		[]string{"reason"},
	)
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
