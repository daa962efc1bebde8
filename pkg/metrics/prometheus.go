package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	messagesSent *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastRate     *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
	fallbacks    *prometheus.CounterVec
	mae          *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indilimit_messages_sent_total",
				Help: "Total number of messages sent to backend",
			},
			[]string{"backend", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indilimit_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastRate: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "indilimit_last_rate",
				Help: "Last recorded rate for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "indilimit_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		fallbacks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indilimit_fallbacks_total",
				Help: "Degraded-path activations by stage",
			},
			[]string{"stage"},
		),
		mae: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "indilimit_model_mae",
				Help: "Validation mean absolute error of the served model",
			},
			[]string{"model"},
		),
	}
}

// RecordMessageSent records a message sent to a backend.
func (r *Recorder) RecordMessageSent(backend, symbol string) {
	r.messagesSent.WithLabelValues(backend, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastRate records the last observed rate for a symbol.
func (r *Recorder) RecordLastRate(symbol string, rate float64) {
	r.lastRate.WithLabelValues(symbol).Set(rate)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordFallback counts one activation of a degraded path.
func (r *Recorder) RecordFallback(stage string) {
	r.fallbacks.WithLabelValues(stage).Inc()
}

// RecordMAE publishes a validation error of the served model.
func (r *Recorder) RecordMAE(model string, mae float64) {
	r.mae.WithLabelValues(model).Set(mae)
}
