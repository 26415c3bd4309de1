package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total number of HTTP requests processed by the chat service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	reaperSweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_reaper_sweeps_total",
			Help: "Total number of presence reaper sweeps, by result.",
		},
		[]string{"result"},
	)
	reaperEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_reaper_evictions_total",
			Help: "Total number of participants evicted for staleness.",
		},
	)
	eventsAppendedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_events_appended_total",
			Help: "Total number of chat events appended to the log.",
		},
		[]string{"kind"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		reaperSweepsTotal,
		reaperEvictionsTotal,
		eventsAppendedTotal,
		amqpPublishErrorsTotal,
	)
}

// HTTPMetricsMiddleware records request counts and latencies per route.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// IncSweep records one completed reaper sweep, result "ok" or "error".
func IncSweep(result string) {
	reaperSweepsTotal.WithLabelValues(result).Inc()
}

// AddEvictions records participants removed by a sweep.
func AddEvictions(n int) {
	reaperEvictionsTotal.Add(float64(n))
}

// IncEventAppended records one appended chat event by kind.
func IncEventAppended(kind string) {
	eventsAppendedTotal.WithLabelValues(kind).Inc()
}

// IncPublishError records a failed AMQP publish.
func IncPublishError() {
	amqpPublishErrorsTotal.Inc()
}
