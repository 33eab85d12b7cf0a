package vaultserver

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	liveSessions   prometheus.Gauge
}

// NewMetrics registers the vault server's collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "requests_total",
			Help:      "Total vault server requests by endpoint and status.",
		}, []string{"endpoint", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vault",
			Name:      "request_duration_seconds",
			Help:      "Vault server request latency by endpoint.",
		}, []string{"endpoint"}),
		liveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vault",
			Name:      "live_sessions",
			Help:      "Number of currently live bearer-token sessions.",
		}),
	}
	reg.MustRegister(m.requests, m.requestLatency, m.liveSessions)
	return m
}

// HTTPMiddleware records a request counter and latency histogram per route.
func (m *Metrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.requests.WithLabelValues(endpoint, statusBucket(c.Writer.Status())).Inc()
		m.requestLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}

// SetLiveSessions updates the live-session gauge.
func (m *Metrics) SetLiveSessions(n int) {
	m.liveSessions.Set(float64(n))
}

func statusBucket(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
