package di_test

import (
	"context"
	"testing"

	"afi-portal/internal/di"
	"afi-portal/internal/portal/config"
	"afi-portal/internal/shared/logger"
	"afi-portal/internal/shared/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContainer(t *testing.T, vars map[string]string) *di.Container {
	t.Helper()
	if vars == nil {
		vars = map[string]string{}
	}
	vars["CLINICAL_API_URL"] = "http://localhost:8000"
	cfg, err := config.LoadConfigFrom(vars)
	require.NoError(t, err)
	return di.NewContainer(cfg, logger.Nop())
}

func TestContainer_InMemoryBackends(t *testing.T) {
	c := newContainer(t, nil)
	ctx := context.Background()

	require.NoError(t, c.InitializePortal(ctx))
	assert.NotNil(t, c.GetPortalModule())
	assert.Nil(t, c.Redis)
	assert.Nil(t, c.MongoDB)
	assert.NoError(t, c.HealthCheck(ctx))

	require.NoError(t, c.Cleanup(ctx))
	assert.Nil(t, c.GetPortalModule())
	assert.Error(t, c.HealthCheck(ctx))
}

func TestContainer_HealthCheckBeforeInit(t *testing.T) {
	c := newContainer(t, nil)
	assert.Error(t, c.HealthCheck(context.Background()))
}

func TestContainer_InvalidSealKey(t *testing.T) {
	c := newContainer(t, nil)
	c.Config.SessionSealKey = "not-hex"
	assert.Error(t, c.InitializePortal(context.Background()))
}

func TestContainer_UnreachableRedis(t *testing.T) {
	c := newContainer(t, map[string]string{"REDIS_ADDR": "127.0.0.1:1"})
	assert.Error(t, c.InitializePortal(context.Background()))
	assert.Nil(t, c.Redis)
}

func TestGetService(t *testing.T) {
	c := newContainer(t, nil)

	registry, err := di.GetService[*prometheus.Registry](c)
	require.NoError(t, err)
	assert.Same(t, c.Registry, registry)

	m, err := di.GetService[*metrics.Metrics](c)
	require.NoError(t, err)
	assert.Same(t, c.Metrics, m)

	_, err = di.GetService[*config.Config](c)
	assert.Error(t, err)

	require.NoError(t, c.Register(c.Config))
	cfg, err := di.GetService[*config.Config](c)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.ClinicalAPIURL)

	assert.Error(t, c.Register(nil))
}
