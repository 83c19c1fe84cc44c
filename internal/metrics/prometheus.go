package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Generation metrics
	GenerationRequestsTotal *prometheus.CounterVec
	GenerationDuration      *prometheus.HistogramVec
	FallbacksTotal          *prometheus.CounterVec
	RegisteredModels        prometheus.Gauge

	// MIDI codec metrics
	MIDIFilesWritten prometheus.Counter
	MIDIBytesWritten prometheus.Counter
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "merlai_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "merlai_http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
				},
				[]string{"method", "path"},
			),
			GenerationRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "merlai_generation_requests_total",
					Help: "Generation calls dispatched to registered models",
				},
				[]string{"kind", "model", "success"},
			),
			GenerationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "merlai_generation_duration_seconds",
					Help:    "Time spent in a model generation call",
					Buckets: []float64{.001, .01, .05, .1, .5, 1, 2.5, 5, 10, 30},
				},
				[]string{"kind", "model"},
			),
			FallbacksTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "merlai_fallbacks_total",
					Help: "Generation calls answered by the rule-based generator after a model failure",
				},
				[]string{"kind"},
			),
			RegisteredModels: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "merlai_registered_models",
					Help: "Number of models in the registry",
				},
			),
			MIDIFilesWritten: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "merlai_midi_files_written_total",
					Help: "MIDI files produced",
				},
			),
			MIDIBytesWritten: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "merlai_midi_bytes_written_total",
					Help: "Bytes of MIDI output produced",
				},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it on first use.
func Get() *Metrics {
	return Initialize()
}

// ObserveGeneration records one dispatched generation call.
func (m *Metrics) ObserveGeneration(kind, model string, success bool, duration time.Duration) {
	m.GenerationRequestsTotal.WithLabelValues(kind, model, strconv.FormatBool(success)).Inc()
	m.GenerationDuration.WithLabelValues(kind, model).Observe(duration.Seconds())
}

// ObserveFallback records a rule-based answer after a model failure.
func (m *Metrics) ObserveFallback(kind string) {
	m.FallbacksTotal.WithLabelValues(kind).Inc()
}

// ObserveMIDI records one written MIDI file.
func (m *Metrics) ObserveMIDI(size int) {
	m.MIDIFilesWritten.Inc()
	m.MIDIBytesWritten.Add(float64(size))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
