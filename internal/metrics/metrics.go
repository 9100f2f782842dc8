package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeNotFound  = "not_found"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)

// Metrics tracks registration and check-in outcomes. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	Registrations   *prometheus.CounterVec
	CheckIns        *prometheus.CounterVec
	CheckInDuration prometheus.Histogram
}

// New registers the attendance metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "swiftattend_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),
		CheckIns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "swiftattend_checkins_total",
			Help: "Check-in scans by outcome",
		}, []string{"outcome"}),
		CheckInDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "swiftattend_checkin_duration_seconds",
			Help:    "Duration of check-in operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) RecordRegistration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordCheckIn(outcome string) {
	if m == nil {
		return
	}
	m.CheckIns.WithLabelValues(outcome).Inc()
}

// ObserveCheckIn records the duration since start.
func (m *Metrics) ObserveCheckIn(start time.Time) {
	if m == nil {
		return
	}
	m.CheckInDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
