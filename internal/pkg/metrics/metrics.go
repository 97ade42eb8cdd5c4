// Package metrics defines and registers all custom Prometheus metrics for the
// auth gateway. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package init
// via promauto; the /metrics route exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gateway"

// ── Rate limiting ─────────────────────────────────────────────────────────────

// RateLimitDecisionsTotal counts admission decisions.
// Label:
//   - result: "admitted", "rejected", "store_error_open" or "store_error_closed"
var RateLimitDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_decisions_total",
		Help:      "Total number of rate limiter admission decisions, by result.",
	},
	[]string{"result"},
)

// ── Authentication ────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts register/login outcomes.
// Labels:
//   - operation: "register" or "login"
//   - result: "success", "duplicate", "invalid_credentials" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of registration and login attempts, by outcome.",
	},
	[]string{"operation", "result"},
)

// GuardRejectionsTotal counts requests stopped by the authorization guard.
// Label:
//   - reason: "unauthenticated", "forbidden", "store_unavailable" or "error"
var GuardRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_rejections_total",
		Help:      "Total number of requests rejected by the authorization guard.",
	},
	[]string{"reason"},
)

// ── Real-time connections ─────────────────────────────────────────────────────

// WSConnectionsActive tracks the number of registered WebSocket connections.
var WSConnectionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_connections_active",
		Help:      "Current number of registered WebSocket connections.",
	},
)

// WSBroadcastsTotal counts broadcast fan-outs.
var WSBroadcastsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ws_broadcasts_total",
		Help:      "Total number of broadcast fan-outs performed by the registry.",
	},
)

// WSDeliveryFailuresTotal counts per-connection delivery failures during broadcast.
var WSDeliveryFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ws_delivery_failures_total",
		Help:      "Total number of failed deliveries that caused a connection to be unregistered.",
	},
)

// ── Background tasks ──────────────────────────────────────────────────────────

// TasksProcessedTotal counts background tasks by outcome.
// Label:
//   - result: "sent", "duplicate" or "error"
var TasksProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_processed_total",
		Help:      "Total number of background email tasks processed, by outcome.",
	},
	[]string{"result"},
)

// TasksQueueDepth tracks the number of tasks waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var TasksQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tasks_queue_depth",
		Help:      "Current number of tasks pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// TaskProcessingDuration measures how long a single task takes end-to-end.
var TaskProcessingDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "task_processing_duration_seconds",
		Help:      "Duration of background task processing from dequeue to completion.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Notes ─────────────────────────────────────────────────────────────────────

// NotesCacheTotal counts note list cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var NotesCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notes_cache_total",
		Help:      "Total number of note list cache lookups, labelled by result.",
	},
	[]string{"result"},
)
