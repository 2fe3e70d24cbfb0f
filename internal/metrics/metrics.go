package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the relay.
type Metrics struct {
	// Membership
	JoinsTotal     prometheus.Counter
	LeavesTotal    prometheus.Counter
	ActiveRooms    prometheus.Gauge
	ActiveSessions prometheus.Gauge

	// Fan-out
	EventsRelayed       *prometheus.CounterVec
	DroppedEvents       prometheus.Counter
	FanoutDuration      prometheus.Histogram
	TranslationRequests prometheus.Counter
	TranslationFailures prometheus.Counter
	TranslationDuration prometheus.Histogram

	// External backends
	MinutesRequests prometheus.Counter
	MinutesFailures prometheus.Counter
	TTSRequests     prometheus.Counter
	TTSFailures     prometheus.Counter

	// Process telemetry
	ProcessCPUPercent prometheus.Gauge
	ProcessRAMPercent prometheus.Gauge
}

// NewMetrics registers all metrics on the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsOn(prometheus.DefaultRegisterer)
}

// NewMetricsOn registers on a caller-supplied registerer. Tests use a fresh
// prometheus.NewRegistry() so repeated construction never collides.
func NewMetricsOn(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		JoinsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "babelroom_joins_total",
			Help: "Total number of room joins",
		}),
		LeavesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "babelroom_leaves_total",
			Help: "Total number of room leaves, explicit or by disconnect",
		}),
		ActiveRooms: factory.NewGauge(prometheus.GaugeOpts{
			Name: "babelroom_active_rooms",
			Help: "Current number of rooms with at least one member",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "babelroom_active_sessions",
			Help: "Current number of live sessions",
		}),
		EventsRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "babelroom_events_relayed_total",
			Help: "Total number of relayed events by kind",
		}, []string{"kind"}),
		DroppedEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "babelroom_events_dropped_total",
			Help: "Total number of events dropped for lack of a session",
		}),
		FanoutDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "babelroom_fanout_duration_seconds",
			Help:    "Wall time of one full fan-out, all recipients joined",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		TranslationRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "babelroom_translation_requests_total",
			Help: "Total number of translation backend calls",
		}),
		TranslationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "babelroom_translation_failures_total",
			Help: "Total number of translation calls degraded to the original text",
		}),
		TranslationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "babelroom_translation_duration_seconds",
			Help:    "Latency of translation backend calls",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		MinutesRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "babelroom_minutes_requests_total",
			Help: "Total number of minutes generation requests",
		}),
		MinutesFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "babelroom_minutes_failures_total",
			Help: "Total number of failed minutes generations",
		}),
		TTSRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "babelroom_tts_requests_total",
			Help: "Total number of speech synthesis requests",
		}),
		TTSFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "babelroom_tts_failures_total",
			Help: "Total number of failed speech synthesis requests",
		}),
		ProcessCPUPercent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "babelroom_process_cpu_percent",
			Help: "CPU usage of the relay process",
		}),
		ProcessRAMPercent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "babelroom_process_ram_percent",
			Help: "Resident memory usage of the relay process",
		}),
	}
}
