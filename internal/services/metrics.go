package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the AI layer
type Metrics struct {
	Requests       *prometheus.CounterVec
	RequestLatency prometheus.Histogram
	CacheHits      *prometheus.CounterVec
	Failovers      prometheus.Counter
	QuotaDenials   prometheus.Counter
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	if globalMetrics != nil {
		return globalMetrics
	}

	metrics := &Metrics{
		// AI requests by feature and terminal outcome
		Requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeos_ai_requests_total",
			Help: "Total number of AI feature calls by feature and outcome",
		}, []string{"feature", "outcome"}),

		// Provider round-trip latency
		RequestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lifeos_ai_request_duration_seconds",
			Help:    "AI provider request latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60}, // LLM responses can be slow
		}),

		// Cache hits by feature
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeos_ai_cache_hits_total",
			Help: "Total number of AI response cache hits by feature",
		}, []string{"feature"}),

		// Speed-tier failovers to the secondary provider
		Failovers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeos_ai_failovers_total",
			Help: "Total number of speed-tier provider failovers",
		}),

		// Daily quota denials
		QuotaDenials: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeos_ai_quota_denials_total",
			Help: "Total number of calls denied by the daily quota",
		}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance (nil until InitMetrics)
func GetMetrics() *Metrics {
	return globalMetrics
}
