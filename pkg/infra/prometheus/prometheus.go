package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// Latency buckets in milliseconds
	latencyBuckets = []float64{
		5, 10, 25,
		50, 100, 250,
		500, 1000, 2500,
		5000, 10000, 30000,
	}

	RequestTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "formgate_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	RequestLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formgate_latency_ms",
			Help:    "Request latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"route"},
	)

	SubmissionsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "formgate_submissions_total",
			Help: "Contact form submissions by terminal outcome",
		},
		[]string{"outcome"},
	)

	RateLimitDecisions = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "formgate_rate_limit_decisions_total",
			Help: "Rate limiter decisions by limiter and result",
		},
		[]string{"limiter", "result"},
	)

	DependencyLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formgate_dependency_latency_ms",
			Help:    "Outbound dependency call latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"dependency", "result"},
	)

	SecurityEventsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "formgate_security_events_total",
			Help: "Security events recorded by type and severity",
		},
		[]string{"type", "severity"},
	)

	DroppedEventTasks = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "formgate_dropped_tasks_total",
			Help: "Background tasks dropped because the queue was full",
		},
		[]string{"queue"},
	)
)

func Initialize() {
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
}

// Gatherer exposes the private registry for the metrics endpoint.
func Gatherer() prometheus.Gatherer {
	return registry
}
