// Package metrics provides Prometheus instrumentation for Meridian.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meridian",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "meridian",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// GraphAnalysesTotal counts graph fraud analyses by result.
	GraphAnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meridian",
			Name:      "graph_analyses_total",
			Help:      "Total graph fraud analyses by result (ok, validation_error, error).",
		},
		[]string{"result"},
	)

	// GraphNodes observes graph size per analysis.
	GraphNodes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "meridian",
		Name:      "graph_nodes",
		Help:      "Node count per analyzed graph.",
		Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000},
	})

	// GraphHighRiskAccounts observes how many accounts scored above the
	// high-risk threshold per analysis.
	GraphHighRiskAccounts = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "meridian",
		Name:      "graph_high_risk_accounts",
		Help:      "High-risk account count per analysis.",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	// DetectorDuration observes per-detector runtime. Cycle enumeration is
	// the expected outlier here.
	DetectorDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "meridian",
			Name:      "graph_detector_duration_seconds",
			Help:      "Signal detector runtime in seconds.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
		},
		[]string{"detector"},
	)

	// UnderwritingDecisionsTotal counts decisions by outcome.
	UnderwritingDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meridian",
			Name:      "underwriting_decisions_total",
			Help:      "Total underwriting decisions by outcome (approved, declined, gate_declined).",
		},
		[]string{"outcome"},
	)

	// UnderwritingPD observes the distribution of issued PD scores.
	UnderwritingPD = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "meridian",
		Name:      "underwriting_pd_12m",
		Help:      "Distribution of 12-month PD scores on scored decisions.",
		Buckets:   []float64{0.01, 0.03, 0.06, 0.09, 0.12, 0.20, 0.30},
	})

	// ActiveWebSocketClients tracks connected WebSocket clients.
	ActiveWebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "meridian",
			Name:      "active_websocket_clients",
			Help:      "Number of currently connected WebSocket clients.",
		},
	)

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "meridian", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBIdleConnections tracks idle database connections.
	DBIdleConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "meridian", Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
	// DBInUseConnections tracks in-use database connections.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "meridian", Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "meridian", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		GraphAnalysesTotal,
		GraphNodes,
		GraphHighRiskAccounts,
		DetectorDuration,
		UnderwritingDecisionsTotal,
		UnderwritingPD,
		ActiveWebSocketClients,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		GoroutineCount,
	)
}

// ObserveDetector times a detector run; call the returned func when done.
func ObserveDetector(name string) func() {
	start := time.Now()
	return func() {
		DetectorDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime goroutine
// count into Prometheus gauges. Call in a goroutine; exits when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
