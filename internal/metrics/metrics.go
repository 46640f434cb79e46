package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	BatchRuns      prometheus.Counter
	SendsTotal     prometheus.Counter
	BlockedTotal   *prometheus.CounterVec
	FailedTotal    *prometheus.CounterVec
	JobsEnqueued   prometheus.Counter
	SendPaused     prometheus.Gauge
	ProcessingTime prometheus.Histogram
}

// NewMetrics creates new Prometheus metrics on the default registry
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates new Prometheus metrics on the given registerer
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BatchRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "outreach_engine_batch_runs_total",
			Help: "Total number of send-stage batch runs",
		}),
		SendsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "outreach_engine_sends_total",
			Help: "Total number of successfully dispatched messages",
		}),
		BlockedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_engine_blocked_total",
			Help: "Total number of sends blocked by a guardrail, by reason",
		}, []string{"reason"}),
		FailedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_engine_failed_total",
			Help: "Total number of failed dispatch attempts, by reason",
		}, []string{"reason"}),
		JobsEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "outreach_engine_jobs_enqueued_total",
			Help: "Total number of pipeline jobs enqueued by the scheduler",
		}),
		SendPaused: factory.NewGauge(prometheus.GaugeOpts{
			Name: "outreach_engine_send_paused",
			Help: "Whether sending is currently paused by the health monitor (1 = paused)",
		}),
		ProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "outreach_engine_batch_duration_seconds",
			Help:    "Time spent processing send-stage batches",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
