package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuestionsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_questions_routed_total",
			Help: "Total number of questions routed, by answer source",
		},
		[]string{"source"},
	)

	RoutingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_routing_duration_seconds",
			Help: "Duration of answer routing in seconds",
		},
		[]string{"source"},
	)

	ProviderRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_provider_requests_total",
			Help: "Total number of generative provider calls",
		},
	)

	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_provider_failures_total",
			Help: "Total number of failed generative provider calls",
		},
		[]string{"error_code"},
	)

	IndexRebuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_index_rebuilds_total",
			Help: "Total number of similarity index rebuilds",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assistant_active_sessions",
			Help: "Number of currently active conversation sessions",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)
)
