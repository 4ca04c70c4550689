package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	framesTotal      *prometheus.CounterVec
	parseErrorsTotal *prometheus.CounterVec
	reconnectsTotal  *prometheus.CounterVec
	selectionsTotal  *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		framesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratcore_stream_frames_total",
				Help: "Total stream frames received per connection",
			},
			[]string{"stream"},
		),
		parseErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratcore_stream_parse_errors_total",
				Help: "Total frames dropped as unparseable",
			},
			[]string{"stream"},
		),
		reconnectsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratcore_stream_reconnects_total",
				Help: "Total reconnect attempts per connection",
			},
			[]string{"stream"},
		),
		selectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratcore_selections_total",
				Help: "Selection decisions by winning strategy",
			},
			[]string{"strategy"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stratcore_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stratcore_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stratcore_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFrame records one received stream frame.
func (r *Recorder) RecordFrame(stream string) {
	r.framesTotal.WithLabelValues(stream).Inc()
}

// RecordParseError records a dropped unparseable frame.
func (r *Recorder) RecordParseError(stream string) {
	r.parseErrorsTotal.WithLabelValues(stream).Inc()
}

// RecordReconnect records a reconnect attempt.
func (r *Recorder) RecordReconnect(stream string) {
	r.reconnectsTotal.WithLabelValues(stream).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordSelection records a selection decision.
func (r *Recorder) RecordSelection(strategyID string) {
	r.selectionsTotal.WithLabelValues(strategyID).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
