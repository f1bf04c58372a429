package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WindowsTotal counts processed audio windows per component.
	// Labels: component (transcribe/diarize), status (success/error)
	WindowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panelpipe_windows_total",
			Help: "Total number of audio windows processed by component",
		},
		[]string{"component", "status"},
	)

	// RetriesTotal counts transcription retry attempts.
	RetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "panelpipe_transcribe_retries_total",
			Help: "Total number of transcription retry attempts",
		},
	)

	// WindowDuration tracks per-window external call latency in seconds.
	// Labels: component (transcribe/diarize)
	WindowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "panelpipe_window_duration_seconds",
			Help:    "Per-window external call duration in seconds by component",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"component"},
	)

	// ChunksEmitted counts chunks produced per completed run.
	ChunksEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "panelpipe_chunks_emitted_total",
			Help: "Total number of token-bounded chunks emitted",
		},
	)
)

// RecordWindow records the outcome of one per-window external call.
func RecordWindow(component string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	WindowsTotal.WithLabelValues(component, status).Inc()
}

// RecordDuration records one per-window call duration in seconds.
func RecordDuration(component string, seconds float64) {
	WindowDuration.WithLabelValues(component).Observe(seconds)
}
