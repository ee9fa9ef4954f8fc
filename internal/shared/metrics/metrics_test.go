package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	require.NotNil(t, m)

	m.RecordGuard(DecisionRedirected)
	m.RecordGuard(DecisionRedirected)
	m.RecordGuard(DecisionAllowed)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GuardDecisions.WithLabelValues(DecisionRedirected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardDecisions.WithLabelValues(DecisionAllowed)))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_Recorders(t *testing.T) {
	m := NewNop()

	m.RecordProfileFetch(true)
	m.RecordProfileFetch(false)
	m.RecordRole("resolved", "")
	m.RecordAuth("login", false)
	m.RecordPrediction("timeout")
	m.ObserveUpstream("me", time.Now())
	m.ObserveHTTP("GET", "/dashboard", 200, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProfileFetches.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoleResolutions.WithLabelValues("resolved", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthOperations.WithLabelValues("login", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/dashboard", "200")))
}
