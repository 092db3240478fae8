package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Collector struct {
	BatchesTotal  *prometheus.CounterVec
	BatchSize     prometheus.Histogram
	MessagesTotal *prometheus.CounterVec
	FailuresTotal *prometheus.CounterVec

	TimestampsDefaulted *prometheus.CounterVec
	StoreWriteDuration  *prometheus.HistogramVec
	BreakerState        prometheus.Gauge
}

// NewCollector registers the ingestion metrics with reg. A nil reg builds
// unregistered collectors, which is what tests want.
func NewCollector(reg prometheus.Registerer, namespace string) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		BatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Total SQS batches handled, by outcome.",
		}, []string{"status"}),

		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "batch_size",
			Help:      "Number of messages per delivered batch.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 10000},
		}),

		MessagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "messages_total",
			Help:      "Total messages processed, by outcome.",
		}, []string{"status"}),

		FailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "failures_total",
			Help:      "Message failures by error class. Any non-zero rate means whole batches are being redelivered.",
		}, []string{"class"}),

		TimestampsDefaulted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "timestamps_defaulted_total",
			Help:      "Orders stored without a producer timestamp, by the source used for the default.",
		}, []string{"source"}),

		StoreWriteDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "write_duration_seconds",
			Help:      "Order upsert latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"status"}),

		BreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "breaker_state",
			Help:      "Store circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}),
	}
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
