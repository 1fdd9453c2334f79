package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exposed on /metrics.
var Registry = prometheus.NewRegistry()

var (
	analysisStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analysis_started_total",
		Help: "Total analyses started",
	})
	analysisCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analysis_completed_total",
		Help: "Total analyses completed",
	})
	analysisFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_failed_total",
		Help: "Total analyses failed, by pipeline stage",
	}, []string{"stage"})
	analysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "analysis_duration_ms",
		Help:    "Analysis duration in milliseconds",
		Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	})
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})
)

func init() {
	Registry.MustRegister(
		analysisStartedTotal,
		analysisCompletedTotal,
		analysisFailedTotal,
		analysisDuration,
		httpRequestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// IncAnalysisStarted increments the started counter.
func IncAnalysisStarted() {
	analysisStartedTotal.Inc()
}

// IncAnalysisCompleted increments the completed counter.
func IncAnalysisCompleted() {
	analysisCompletedTotal.Inc()
}

// IncAnalysisFailed increments the failed counter for the given stage.
func IncAnalysisFailed(stage string) {
	if stage == "" {
		stage = "unknown"
	}
	analysisFailedTotal.WithLabelValues(stage).Inc()
}

// ObserveAnalysisDuration records an analysis duration.
func ObserveAnalysisDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	analysisDuration.Observe(float64(d.Microseconds()) / 1000.0)
}

// ObserveRequest counts a finished HTTP request.
func ObserveRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
