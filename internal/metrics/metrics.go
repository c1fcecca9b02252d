package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by route template and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qaforum_http_requests_total",
		Help: "Total HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qaforum_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	VotesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qaforum_votes_applied_total",
		Help: "Votes applied by target type, vote type and whether the ledger changed",
	}, []string{"target", "vote_type", "changed"})

	AcceptanceTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qaforum_acceptance_transitions_total",
		Help: "Acceptance state transitions by result",
	}, []string{"result"})

	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qaforum_notifications_created_total",
		Help: "Durable notifications created by type",
	}, []string{"type"})

	// NotificationsPushed counts real-time deliveries per connection
	NotificationsPushed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qaforum_notifications_pushed_total",
		Help: "Real-time pushes by result (delivered, dropped)",
	}, []string{"result"})

	DispatchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qaforum_dispatch_failures_total",
		Help: "Notification dispatch failures by event",
	}, []string{"event"})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qaforum_rate_limited_total",
		Help: "Requests rejected by the rate limiter by action",
	}, []string{"action"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qaforum_ws_connections",
		Help: "Open real-time connections",
	})

	ExpiredNotificationsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qaforum_notifications_expired_purged_total",
		Help: "Expired notifications removed by the sweeper",
	})

	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qaforum_emails_sent_total",
		Help: "Notification e-mails by result",
	}, []string{"result"})
)
