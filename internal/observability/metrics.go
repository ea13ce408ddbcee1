package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "where"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	probes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "responder",
			Name:      "probes_total",
			Help:      "Probe datagrams received.",
		},
	)
	replies = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "responder",
			Name:      "replies_total",
			Help:      "Session payloads sent.",
		},
	)
	failures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "responder",
			Name:      "failures_total",
			Help:      "Requests that could not be answered, by stage.",
		},
		[]string{"stage"},
	)
	replyBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "responder",
			Name:      "reply_bytes",
			Help:      "Encoded payload size in bytes.",
			Buckets:   prometheus.ExponentialBuckets(8, 4, 7),
		},
	)
	sessionsReported = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "responder",
			Name:      "sessions_reported",
			Help:      "Sessions in the most recent reply.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, probes, replies, failures, replyBytes, sessionsReported)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordProbe() {
	RegisterMetrics()
	probes.Inc()
}

func RecordReply(bytes, sessions int) {
	RegisterMetrics()
	replies.Inc()
	replyBytes.Observe(float64(bytes))
	sessionsReported.Set(float64(sessions))
}

// RecordFailure counts a request dropped at stage (gather, encode, send).
func RecordFailure(stage string) {
	RegisterMetrics()
	failures.WithLabelValues(stage).Inc()
}
