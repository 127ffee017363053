// Package metrics holds the Prometheus collectors shared by the assessment flow and the proxy endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cvassess"

var (
	AssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Total number of finished assessment submissions by outcome",
		},
		[]string{"status"},
	)

	AssessmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assessment_duration_seconds",
			Help:      "Time from submission until the response stream ends",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
	)

	AssessmentChunks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessment_chunks_total",
			Help:      "Total number of decoded chunks appended to assessments",
		},
	)

	AssessmentsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "assessments_in_flight",
			Help:      "Number of assessment submissions currently streaming",
		},
	)

	ProxyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_requests_total",
			Help:      "Total number of generate requests handled by the proxy endpoint",
		},
		[]string{"status"},
	)
)

// Outcome labels.
const (
	StatusOK           = "ok"
	StatusInvalid      = "invalid"
	StatusRequestError = "request_error"
	StatusStreamError  = "stream_error"
)
