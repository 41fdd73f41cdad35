// Package metrics defines and registers all custom Prometheus metrics for the
// news API and its worker. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default registry at package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "news"

// ── Job metrics ───────────────────────────────────────────────────────────────

// JobsProcessedTotal counts jobs the worker finished.
// Label:
//   - result: "completed", "retried" or "failed"
var JobsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_processed_total",
		Help:      "Total number of queue jobs handled by the worker, by result.",
	},
	[]string{"result"},
)

// JobProcessingDuration measures one processor run.
var JobProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_processing_duration_seconds",
		Help:      "Duration of a single job run from dequeue to acknowledgement.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// QueueDepth is sampled periodically from Redis.
// Label:
//   - state: "wait", "active", "delayed", "completed" or "failed"
var QueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Number of jobs per queue state.",
	},
	[]string{"state"},
)

// NotificationsTotal counts per-item side effects of the news job.
// Label:
//   - result: "sent", "skipped" (already notified) or "error"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of news notifications, by result.",
	},
	[]string{"result"},
)

// ── HTTP-side metrics ─────────────────────────────────────────────────────────

// NewsCreatedTotal counts articles created through the API.
var NewsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "articles_created_total",
		Help:      "Total number of news articles created.",
	},
)

// CacheRequestsTotal counts listing cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var CacheRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Total number of response cache lookups, by result.",
	},
	[]string{"result"},
)
