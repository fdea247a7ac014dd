package views_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/tremor"
	"github.com/kode4food/tremor/views"
)

func gather(
	t *testing.T, reg *prometheus.Registry,
) map[string]*dto.MetricFamily {
	t.Helper()
	fams, err := reg.Gather()
	require.NoError(t, err)
	res := map[string]*dto.MetricFamily{}
	for _, f := range fams {
		res[f.GetName()] = f
	}
	return res
}

func metricValue(
	t *testing.T, reg *prometheus.Registry, name string, labels ...string,
) float64 {
	t.Helper()
	fam, ok := gather(t, reg)[name]
	require.True(t, ok, name)

	for _, m := range fam.GetMetric() {
		if !hasLabels(m, labels) {
			continue
		}
		switch {
		case m.GetCounter() != nil:
			return m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("no %s sample with labels %v", name, labels)
	return 0
}

func hasLabels(m *dto.Metric, labels []string) bool {
	want := map[string]string{}
	for i := 0; i+1 < len(labels); i += 2 {
		want[labels[i]] = labels[i+1]
	}
	for _, lp := range m.GetLabel() {
		if v, ok := want[lp.GetName()]; ok && v != lp.GetValue() {
			return false
		}
	}
	return true
}

func TestMetricsFollowEngine(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := views.NewMetrics(reg)
	require.NoError(t, err)
	assert.Equal(t, 1.0,
		metricValue(t, reg, "tremor_playback_state", "state", "stopped"),
	)

	c := minuteCatalog(t, 60, 10, 20, 30, 45)
	e := tremor.NewEngine(c, tremor.Config{Step: 15 * time.Minute}, m)
	e.Play()
	for {
		f, ok := e.Tick()
		if !ok || f.State == tremor.Stopped {
			break
		}
	}
	e.Scrub(0.5)

	assert.Equal(t, 4.0,
		metricValue(t, reg, "tremor_frames_total", "motion", "advance"),
	)
	assert.Equal(t, 2.0,
		metricValue(t, reg, "tremor_frames_total", "motion", "seek"),
	)
	assert.Equal(t, 6.0, metricValue(t, reg, "tremor_events_shown_total"))
	assert.Equal(t, 1.0, metricValue(t, reg, "tremor_clears_total"))
	assert.Equal(t, 1.0, metricValue(t, reg, "tremor_transition_pauses_total"))
	assert.Equal(t, 1.0, metricValue(t, reg, "tremor_transition_resumes_total"))
	assert.Equal(t, 0.5, metricValue(t, reg, "tremor_playback_progress_ratio"))
	assert.Equal(t, 900.0, metricValue(t, reg, "tremor_playback_step_seconds"))
	assert.Equal(t, 1800.0,
		metricValue(t, reg, "tremor_playback_timestamp_seconds"),
	)
	assert.Equal(t, 1.0,
		metricValue(t, reg, "tremor_playback_state", "state", "paused"),
	)
	assert.Equal(t, 0.0,
		metricValue(t, reg, "tremor_playback_state", "state", "stopped"),
	)
}

func TestMetricsShareRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := views.NewMetrics(reg)
	require.NoError(t, err)
	b, err := views.NewMetrics(reg)
	require.NoError(t, err)

	a.Clear()
	b.Clear()
	assert.Equal(t, 2.0, metricValue(t, reg, "tremor_clears_total"))
}
