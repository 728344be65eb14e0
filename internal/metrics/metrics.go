// Package metrics exposes Prometheus collectors for HTTP traffic and attendance marks.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"attendtrack/internal/model"
)

// Metrics groups the collectors registered by the service.
type Metrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	marks     *prometheus.CounterVec
	conflicts prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendtrack_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "attendtrack_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		marks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendtrack_attendance_marks_total",
			Help: "Attendance records created, by status.",
		}, []string{"status"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendtrack_attendance_mark_conflicts_total",
			Help: "Mark attempts rejected because the day was already marked.",
		}),
	}
	reg.MustRegister(m.requests, m.latency, m.marks, m.conflicts)
	return m
}

// Marked counts a created attendance record.
func (m *Metrics) Marked(status model.Status) {
	m.marks.WithLabelValues(string(status)).Inc()
}

// Conflict counts a rejected duplicate mark.
func (m *Metrics) Conflict() {
	m.conflicts.Inc()
}

// GinMiddleware records request count and latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
