package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newschat_chat_requests_total",
		Help: "Chat exchanges attempted.",
	})
	chatFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newschat_chat_failures_total",
		Help: "Pipeline failures by kind.",
	}, []string{"kind"})
	chatDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "newschat_chat_duration_seconds",
		Help:    "End-to-end chat exchange latency.",
		Buckets: prometheus.DefBuckets,
	})
)
