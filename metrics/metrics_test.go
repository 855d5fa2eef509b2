package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMetrics(reg)
	require.NoError(t, err)

	m.RecordAdvance(OutcomeAdvanced, 20*time.Millisecond)
	m.RecordAdvance(OutcomeConflict, time.Millisecond)
	m.RecordAdvance(OutcomeConflict, time.Millisecond)
	m.RecordTeamsAdvanced(2)
	m.RecordMatchesProcessed(5)
	m.RecordSkippedRules(1)
	m.RecordEventPublishFailure("nats")

	pm := m.(*prometheusMetrics)
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.advances.WithLabelValues(OutcomeAdvanced)))
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.advances.WithLabelValues(OutcomeConflict)))
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.teamsAdvanced))
	assert.Equal(t, 5.0, testutil.ToFloat64(pm.matches))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.skippedRules))

	expected := `
# HELP tournament_engine_event_publish_failures_total Phase advanced events that could not be delivered.
# TYPE tournament_engine_event_publish_failures_total counter
tournament_engine_event_publish_failures_total{publisher="nats"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tournament_engine_event_publish_failures_total"))
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMetrics(reg)
	require.NoError(t, err)

	_, err = NewPrometheusMetrics(reg)
	assert.Error(t, err)
}
