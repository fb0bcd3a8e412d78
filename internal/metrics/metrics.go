// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HttpRequestsTotal counts HTTP requests handled by the API.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of http requests handled by the service.",
		},
		[]string{"path", "method", "code"},
	)

	// MessagesDispatchedTotal counts dispatched messages by kind and outcome.
	MessagesDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ha_messages_dispatched_total",
			Help: "Total number of messages dispatched by the consumer loop.",
		},
		[]string{"kind", "status"}, // status: success / failed
	)

	// MessagesDroppedTotal counts messages dropped after a contained failure.
	MessagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ha_messages_dropped_total",
			Help: "Total number of messages dropped after an unhandled dispatch failure.",
		},
		[]string{"kind"},
	)

	// RetryAttemptsTotal counts failed attempts of retried operations.
	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ha_retry_attempts_total",
			Help: "Total number of failed attempts of operations under indefinite retry.",
		},
		[]string{"operation"},
	)

	// MailboxDepth tracks the number of messages waiting in the mailbox.
	MailboxDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ha_mailbox_depth",
			Help: "Number of messages currently queued in the consumer mailbox.",
		},
	)

	// EventLogPublishTotal counts entries appended to the event log.
	EventLogPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ha_event_log_publish_total",
			Help: "Total number of payloads published to the event log.",
		},
		[]string{"category"},
	)
)
