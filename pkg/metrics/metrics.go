package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records session authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizcore_auth_attempts_total",
			Help: "Total number of session authentication attempts",
		},
		[]string{"result"},
	)

	// PrivilegeChecks counts capability evaluations and their outcome (allow|deny).
	PrivilegeChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizcore_privilege_checks_total",
			Help: "Total number of capability flag checks",
		},
		[]string{"feature", "result"},
	)

	// PartialResolutions counts privilege lookups that failed during
	// capability aggregation and degraded to an empty (deny-all) slot.
	PartialResolutions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bizcore_privilege_partial_resolutions_total",
			Help: "Privilege lookups that failed and resolved to empty capabilities",
		},
	)

	// NotificationsDispatched counts persisted notification records by alert type.
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizcore_notifications_dispatched_total",
			Help: "Total number of notification records persisted",
		},
		[]string{"alert_type"},
	)

	// NotificationPushes counts live events delivered to connected recipients.
	NotificationPushes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bizcore_notification_pushes_total",
			Help: "Total number of live notification events pushed",
		},
	)

	// LiveConnections tracks currently attached websocket clients.
	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bizcore_live_connections",
			Help: "Number of attached live channel connections",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bizcore_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
