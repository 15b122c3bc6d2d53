package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Digest batch run duration.
	DigestRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "digest_run_duration_seconds",
			Help:    "Digest batch run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)

	// Digests delivered, per channel.
	DigestsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digests_sent_total",
			Help: "Total number of digests successfully sent",
		},
		[]string{"channel"},
	)

	// Digest failures, per channel.
	DigestsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digests_failed_total",
			Help: "Total number of digest sends that failed",
		},
		[]string{"channel"},
	)

	// Due subscriptions skipped without a send, per reason.
	DigestsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digests_skipped_total",
			Help: "Total number of due subscriptions skipped without a send",
		},
		[]string{"reason"}, // reason: empty, missing_recipient
	)

	// Pending notifications queued for a later digest, per channel.
	PendingEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pending_notifications_enqueued_total",
			Help: "Total number of notifications queued for digest delivery",
		},
		[]string{"channel"},
	)

	// Immediate sends, per channel.
	ImmediateSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "immediate_notifications_sent_total",
			Help: "Total number of notifications sent immediately",
		},
		[]string{"channel"},
	)

	// MQ consumption latency in milliseconds.
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	// Slow database queries.
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of slow database queries",
		},
	)
)

// ObserveDigestRun records the duration of one digest batch run.
func ObserveDigestRun(duration time.Duration) {
	DigestRunDuration.Observe(duration.Seconds())
}

// RecordMQConsumeLatency records MQ consumption latency.
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// IncrementSlowQuery counts one slow query.
func IncrementSlowQuery(duration time.Duration) {
	SlowQueryCount.Inc()
}
