package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the decision pipeline.
type Metrics struct {
	DecisionsTotal     *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	TechnicalErrors    prometheus.Counter
	FraudAlerts        prometheus.Counter
	ExpiredRequests    prometheus.Counter
	ProcessingDuration prometheus.Histogram
	PendingReviews     prometheus.Gauge
}

// New creates and registers all pipeline metrics.
func New() *Metrics {
	return &Metrics{
		DecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riskgate_decisions_total",
			Help: "Total pipeline decisions by outcome",
		}, []string{"outcome"}),
		ValidationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riskgate_validation_failures_total",
			Help: "Total fast-fail format validation failures by error code",
		}, []string{"code"}),
		TechnicalErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "riskgate_technical_errors_total",
			Help: "Total unexpected errors converted to technical-error responses",
		}),
		FraudAlerts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "riskgate_fraud_alerts_total",
			Help: "Total fraud alerts raised by the transaction evaluator",
		}),
		ExpiredRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "riskgate_expired_requests_total",
			Help: "Total requests expired by the retention sweep",
		}),
		ProcessingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "riskgate_processing_duration_seconds",
			Help:    "Wall time to process one inbound validation request",
			Buckets: prometheus.DefBuckets,
		}),
		PendingReviews: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "riskgate_pending_manual_reviews",
			Help: "Current number of requests awaiting manual review",
		}),
	}
}
