package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reservation_web"

var (
	once sync.Once

	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Backend API calls by endpoint and HTTP status.",
		},
		[]string{"endpoint", "status"},
	)

	backendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend API call latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	pageRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_requests_total",
			Help:      "Served pages by route pattern and status.",
		},
		[]string{"route", "status"},
	)

	supersededFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "superseded_fetches_total",
			Help:      "List fetches dropped because a newer filter was applied.",
		},
		[]string{"view"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Outbound notifications by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(backendRequests, backendLatency, pageRequests, supersededFetches, notifications)
	})
}

// ObserveBackend records one backend call. status 0 means no response.
func ObserveBackend(endpoint string, status int, dur time.Duration) {
	backendRequests.WithLabelValues(endpoint, statusLabel(status)).Inc()
	backendLatency.WithLabelValues(endpoint).Observe(dur.Seconds())
}

// IncPage increments the counter for a served route.
func IncPage(route string, status int) {
	pageRequests.WithLabelValues(route, statusLabel(status)).Inc()
}

// IncSuperseded counts a discarded list fetch.
func IncSuperseded(view string) {
	supersededFetches.WithLabelValues(view).Inc()
}

// IncNotification counts a notification delivery outcome.
func IncNotification(result string) {
	notifications.WithLabelValues(result).Inc()
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}
