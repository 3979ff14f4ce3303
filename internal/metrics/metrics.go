package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus instruments for the streaming service.
type Metrics struct {
	ActiveSessions  prometheus.Gauge
	SessionsCreated prometheus.Counter
	SessionsClosed  prometheus.Counter

	MessagesReceived *prometheus.CounterVec
	MessageErrors    *prometheus.CounterVec

	FragmentsNormalized prometheus.Counter
	NormalizeErrors     prometheus.Counter

	WindowsProcessed prometheus.Counter
	WindowDuration   prometheus.Histogram

	TranscriptionDuration prometheus.Histogram
	TranscriptionFailures prometheus.Counter
	SegmentsEmitted       prometheus.Counter

	ModelLoads *prometheus.CounterVec
}

// New registers all instruments on the given registerer. Tests pass a fresh
// registry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stt_active_sessions",
			Help: "Current number of connected streaming sessions",
		}),
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "stt_sessions_created_total",
			Help: "Total number of streaming sessions created",
		}),
		SessionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "stt_sessions_closed_total",
			Help: "Total number of streaming sessions closed",
		}),
		MessagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stt_messages_received_total",
			Help: "Inbound client messages by type",
		}, []string{"type"}),
		MessageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stt_message_errors_total",
			Help: "Client-visible errors by source",
		}, []string{"source"}),
		FragmentsNormalized: factory.NewCounter(prometheus.CounterOpts{
			Name: "stt_fragments_normalized_total",
			Help: "Audio fragments successfully normalized",
		}),
		NormalizeErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "stt_normalize_errors_total",
			Help: "Audio fragments rejected during normalization",
		}),
		WindowsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "stt_windows_processed_total",
			Help: "Audio windows handed to the transcription pipeline",
		}),
		WindowDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "stt_window_duration_seconds",
			Help:    "Audio duration of drained windows",
			Buckets: []float64{1, 2.5, 5, 7.5, 10, 15, 30},
		}),
		TranscriptionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "stt_transcription_duration_seconds",
			Help:    "Wall time of backend transcription calls",
			Buckets: prometheus.DefBuckets,
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "stt_transcription_failures_total",
			Help: "Backend transcription calls that returned an error",
		}),
		SegmentsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "stt_segments_emitted_total",
			Help: "Transcript segments sent to clients",
		}),
		ModelLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stt_model_loads_total",
			Help: "Model load attempts by device and outcome",
		}, []string{"device", "outcome"}),
	}
}
