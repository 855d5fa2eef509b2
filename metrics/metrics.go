package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tournament_engine"

// Outcome labels for advancement attempts.
const (
	OutcomeAdvanced  = "advanced"
	OutcomeCompleted = "completed"
	OutcomeNotFound  = "not_found"
	OutcomeConflict  = "conflict"
	OutcomeFailed    = "failed"
)

// ProgressionMetrics records phase advancement activity.
type ProgressionMetrics interface {
	RecordAdvance(outcome string, duration time.Duration)
	RecordTeamsAdvanced(n int)
	RecordMatchesProcessed(n int)
	RecordSkippedRules(n int)
	RecordEventPublishFailure(publisher string)
}

type prometheusMetrics struct {
	advances        *prometheus.CounterVec
	advanceDuration *prometheus.HistogramVec
	teamsAdvanced   prometheus.Counter
	matches         prometheus.Counter
	skippedRules    prometheus.Counter
	publishFailures *prometheus.CounterVec
}

// NewPrometheusMetrics registers the progression collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (ProgressionMetrics, error) {
	m := &prometheusMetrics{
		advances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_advances_total",
			Help:      "Phase advancement attempts by outcome.",
		}, []string{"outcome"}),
		advanceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_advance_duration_seconds",
			Help:      "Wall time of phase advancement attempts.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		teamsAdvanced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "teams_advanced_total",
			Help:      "Teams moved into a following phase.",
		}),
		matches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_processed_total",
			Help:      "Completed matches aggregated during advancement.",
		}),
		skippedRules: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qualification_rules_skipped_total",
			Help:      "Qualification rules skipped because their destination could not be resolved.",
		}),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Phase advanced events that could not be delivered.",
		}, []string{"publisher"}),
	}

	for _, c := range []prometheus.Collector{
		m.advances, m.advanceDuration, m.teamsAdvanced, m.matches, m.skippedRules, m.publishFailures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *prometheusMetrics) RecordAdvance(outcome string, duration time.Duration) {
	m.advances.WithLabelValues(outcome).Inc()
	m.advanceDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *prometheusMetrics) RecordTeamsAdvanced(n int) {
	m.teamsAdvanced.Add(float64(n))
}

func (m *prometheusMetrics) RecordMatchesProcessed(n int) {
	m.matches.Add(float64(n))
}

func (m *prometheusMetrics) RecordSkippedRules(n int) {
	m.skippedRules.Add(float64(n))
}

func (m *prometheusMetrics) RecordEventPublishFailure(publisher string) {
	m.publishFailures.WithLabelValues(publisher).Inc()
}

// NoOpMetrics discards everything. Used by phasectl and tests.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordAdvance(string, time.Duration) {}
func (NoOpMetrics) RecordTeamsAdvanced(int)             {}
func (NoOpMetrics) RecordMatchesProcessed(int)          {}
func (NoOpMetrics) RecordSkippedRules(int)              {}
func (NoOpMetrics) RecordEventPublishFailure(string)    {}
