package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)

	require.Equal(t, "postgres", cfg.Catalog.Driver)
	require.Equal(t, "db.example.com", cfg.Catalog.Host)
	require.Equal(t, 5432, cfg.Catalog.Port)
	require.Equal(t, "bizcore_catalog", cfg.Catalog.Name)

	require.Len(t, cfg.Tenants, 2)
	acme := cfg.Tenants["acme_corp"]
	require.Equal(t, "mysql", acme.Driver)
	require.Equal(t, "tenants.example.com", acme.Host)
	require.Equal(t, 3306, acme.Port)
	beta := cfg.Tenants["beta_corp"]
	require.Equal(t, "sqlite", beta.Driver)
	require.Equal(t, "./data/beta_corp.sqlite", beta.Path)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.True(t, cfg.Monitoring.Health.Enabled)

	require.True(t, cfg.Maintenance.SessionCleanup.Enabled)
	require.Equal(t, "*/30 * * * *", cfg.Maintenance.SessionCleanup.Schedule)
}

func TestLoadConfigRequiresTenants(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "tenant")
}
