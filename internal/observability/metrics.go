package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by command.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peertutor_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records snapshot database latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "peertutor_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// SearchQueriesTotal counts tutor searches by which fields the parser filled.
	SearchQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peertutor_search_queries_total",
		Help: "Total tutor searches by parsed field combination",
	}, []string{"fields"})

	// SearchResults observes how many tutors a search returned.
	SearchResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "peertutor_search_results",
		Help:    "Number of tutors returned per search",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	// SessionTransitionsTotal counts session status changes by target status.
	SessionTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peertutor_session_transitions_total",
		Help: "Total session status transitions by target status",
	}, []string{"status"})

	// ChatMessagesTotal counts stored chat messages by origin.
	ChatMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peertutor_chat_messages_total",
		Help: "Total chat messages stored",
	}, []string{"origin"})

	// MailDeliveriesTotal counts outgoing mail by kind and result.
	MailDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peertutor_mail_deliveries_total",
		Help: "Total outgoing mail by kind and result",
	}, []string{"kind", "result"})

	// JobRunsTotal counts scheduler job runs by job and result.
	JobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peertutor_job_runs_total",
		Help: "Total scheduled job runs by job and result",
	}, []string{"job", "result"})

	// WebSocketConnectionsTotal is the gauge of active WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "peertutor_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peertutor_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// DatabaseMetrics records query latency for the snapshot repository.
type DatabaseMetrics struct{}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics() *DatabaseMetrics {
	return &DatabaseMetrics{}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}

// SearchFieldsLabel summarizes which parsed fields were present, e.g.
// "subject+day" or "text".
func SearchFieldsLabel(subject, level, mode, day, period bool) string {
	label := ""
	add := func(present bool, name string) {
		if !present {
			return
		}
		if label != "" {
			label += "+"
		}
		label += name
	}
	add(subject, "subject")
	add(level, "level")
	add(mode, "mode")
	add(day, "day")
	add(period, "time")
	if label == "" {
		return "text"
	}
	return label
}
