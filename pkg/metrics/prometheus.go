package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	backendCalls   *prometheus.CounterVec
	backendLatency *prometheus.HistogramVec
	uiErrors       *prometheus.CounterVec
	sessions       prometheus.Gauge
}

// New creates a Prometheus metrics recorder registered on reg.
// A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		backendCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockview_backend_requests_total",
				Help: "Backend API calls by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		backendLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockview_backend_request_duration_seconds",
				Help:    "Backend API call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		uiErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockview_ui_errors_total",
				Help: "Errors surfaced to the page by kind",
			},
			[]string{"kind"},
		),
		sessions: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "stockview_active_sessions",
				Help: "Open page sessions",
			},
		),
	}
}

// RecordBackendCall records one backend API call.
func (r *Recorder) RecordBackendCall(endpoint, outcome string, seconds float64) {
	r.backendCalls.WithLabelValues(endpoint, outcome).Inc()
	r.backendLatency.WithLabelValues(endpoint).Observe(seconds)
}

// RecordUIError records an error shown to the user.
func (r *Recorder) RecordUIError(kind string) {
	r.uiErrors.WithLabelValues(kind).Inc()
}

func (r *Recorder) SessionOpened() { r.sessions.Inc() }

func (r *Recorder) SessionClosed() { r.sessions.Dec() }

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordBackendCall(string, string, float64) {}
func (Nop) RecordUIError(string) {}
func (Nop) SessionOpened() {}
func (Nop) SessionClosed() {}
