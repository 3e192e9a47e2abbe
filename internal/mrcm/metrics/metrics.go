package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for MRCM regeneration.
type Metrics struct {
	// Regeneration runs by trigger and outcome
	Runs *prometheus.CounterVec

	// Duration of a run by trigger
	RunDuration *prometheus.HistogramVec

	// Persisted changes by kind and persistence mode
	Changes *prometheus.CounterVec

	// Non-fatal diagnostics by kind
	Diagnostics *prometheus.CounterVec
}

// New creates a new Metrics instance with all MRCM metrics registered.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics on reg. Tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mrcm_regeneration_runs_total",
			Help: "MRCM regeneration runs by trigger and outcome",
		}, []string{"trigger", "outcome"}), // trigger: "commit", "rebuild", "preview"; outcome: "changed", "unchanged", "skipped", "error"

		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mrcm_regeneration_duration_seconds",
			Help:    "Duration of MRCM regeneration runs by trigger",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"trigger"}),

		Changes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mrcm_changes_persisted_total",
			Help: "MRCM members updated by regeneration, by kind and persistence mode",
		}, []string{"kind", "mode"}), // kind: "attribute_rule", "domain_template"; mode: "patch", "new_version"

		Diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mrcm_diagnostics_total",
			Help: "Non-fatal MRCM generation diagnostics by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncrementRun(trigger, outcome string) {
	if m != nil {
		m.Runs.WithLabelValues(trigger, outcome).Inc()
	}
}

func (m *Metrics) ObserveRunDuration(trigger string, d time.Duration) {
	if m != nil {
		m.RunDuration.WithLabelValues(trigger).Observe(d.Seconds())
	}
}

func (m *Metrics) AddChanges(kind, mode string, n int) {
	if m != nil && n > 0 {
		m.Changes.WithLabelValues(kind, mode).Add(float64(n))
	}
}

func (m *Metrics) IncrementDiagnostic(kind string) {
	if m != nil {
		m.Diagnostics.WithLabelValues(kind).Inc()
	}
}
