package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/metrics"
)

func TestMetrics_Record(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())

	m.ObserveFetch("success", 120*time.Millisecond)
	m.ObserveFetch("success", 80*time.Millisecond)
	m.ObserveFetch("timeout", 0)
	m.RobotsBlocked()
	m.LinkSkipped("external")
	m.Finding("critical", "technical_seo")
	m.CheckError("TECH_TITLE_TAG")
	m.RunTransition("running")
	m.RunStarted()

	assert.InDelta(t, 2, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("timeout")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RobotsBlockedTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LinksSkippedTotal.WithLabelValues("external")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FindingsTotal.WithLabelValues("critical", "technical_seo")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CheckErrorsTotal.WithLabelValues("TECH_TITLE_TAG")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RunsRunning), 0)

	m.RunFinished("completed", 3*time.Second)
	assert.InDelta(t, 0, testutil.ToFloat64(m.RunsRunning), 0)
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveFetch("success", time.Second)
		m.RobotsBlocked()
		m.LinkSkipped("query")
		m.Finding("low", "content")
		m.CheckError("X")
		m.RunTransition("failed")
		m.RunStarted()
		m.RunFinished("failed", time.Second)
	})
}
