package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PostsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bachbot_posts_total",
			Help: "Post attempts by outcome",
		},
		[]string{"status"},
	)

	ConnectionTestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bachbot_connection_tests_total",
			Help: "Mastodon verify_credentials calls by outcome",
		},
		[]string{"status"},
	)

	InvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bachbot_invocations_total",
			Help: "Child bot runs started by the invoker, by outcome",
		},
		[]string{"status"},
	)

	InvocationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bachbot_invocation_duration_seconds",
			Help:    "Wall time of one child bot run",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 250ms to 32s
		},
	)
)
