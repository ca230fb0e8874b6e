package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"method", "path", "status"},
)

var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "path"},
)

var MembersRegisteredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "members_registered_total",
		Help: "Total number of registered members",
	},
)

var ProductsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "products_created_total",
		Help: "Total number of created products",
	},
)

var IdempotencyReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "idempotency_replays_total",
		Help: "Total number of responses replayed from the idempotency cache",
	},
)

var IdempotencyCacheErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "idempotency_cache_errors_total",
		Help: "Total number of idempotency cache failures by operation",
	},
	[]string{"op"},
)

var IdempotencyDroppedWritesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "idempotency_dropped_writes_total",
		Help: "Total number of cache writes dropped because the write queue was full",
	},
)
