package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogue_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dialogue_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	DialoguesStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dialogue_started_total",
			Help: "Total new dialogues opened",
		},
	)

	TurnsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dialogue_turns_total",
			Help: "Total completed dialogue turns (human message plus reply)",
		},
	)

	MalformedDialogues = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dialogue_malformed_total",
			Help: "Total dialogues whose reply chain failed reconstruction",
		},
	)

	// Upstream metrics
	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogue_upstream_errors_total",
			Help: "Total upstream collaborator failures",
		},
		[]string{"service"}, // "auth" or "inference"
	)

	InferenceLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dialogue_inference_latency_seconds",
			Help:    "Inference service call latency",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogue_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
