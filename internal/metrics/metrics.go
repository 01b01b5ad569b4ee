// Package metrics defines Prometheus metrics for offerdesk.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "offerdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offerdesk_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offerdesk_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	AuditEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offerdesk_audit_entries_total",
			Help: "Audit log entries written, by action",
		},
		[]string{"action"},
	)

	LockConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offerdesk_lock_conflicts_total",
			Help: "Edit attempts rejected because another user holds the lock",
		},
	)

	ExpiredLocksReleasedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offerdesk_expired_locks_released_total",
			Help: "Abandoned edit locks cleared by the sweeper",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		AuditEntriesTotal, LockConflictsTotal, ExpiredLocksReleasedTotal,
	)
}
