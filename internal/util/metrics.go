package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_confirmed_total",
		Help: "Total number of orders confirmed and appended to the ledger",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of order confirmations that failed",
	}, []string{"reason"})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of wizards abandoned before confirmation",
	})

	DiscountAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discount_attempts_total",
		Help: "Discount code submissions by outcome",
	}, []string{"outcome"})

	WizardEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wizard_events_total",
		Help: "Inbound chat events by kind",
	}, []string{"kind"})

	RejectedEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rejected_events_total",
		Help: "Inbound events rejected as invalid for the current state",
	}, []string{"reason"})

	LedgerAppendLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_append_latency_seconds",
		Help:    "Latency of ledger append operations",
		Buckets: prometheus.DefBuckets,
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "active_sessions",
		Help: "Number of live chat sessions",
	})

	AnnouncementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "announcements_total",
		Help: "Total number of announcements broadcast",
	})

	OrderStatusUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_status_updates_total",
		Help: "Total number of order status updates by admins",
	})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Notifications delivered by the notification worker",
	}, []string{"type", "result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
