package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsMiddleware records per-request Prometheus metrics plus the portal's
// domain counters.
type MetricsMiddleware struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	// DownloadsTotal counts served document downloads per domain.
	DownloadsTotal *prometheus.CounterVec
	// InfoRequestsTotal counts submitted information requests.
	InfoRequestsTotal prometheus.Counter
}

// NewMetricsMiddleware creates the middleware and registers its collectors on
// the default registry.
func NewMetricsMiddleware() *MetricsMiddleware {
	return &MetricsMiddleware{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		DownloadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_document_downloads_total",
			Help: "Served document downloads by domain.",
		}, []string{"domain"}),
		InfoRequestsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "portal_info_requests_total",
			Help: "Submitted public information requests.",
		}),
	}
}

// Handler returns the gin middleware function
func (m *MetricsMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.requestsTotal.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).
			Observe(time.Since(start).Seconds())
	}
}
