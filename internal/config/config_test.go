package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, BackendJSON, cfg.PersistenceBackend)
	require.Equal(t, 100.0, cfg.DefaultLiquidity)
}

func TestLoadRejectsGormBackendWithoutDSN(t *testing.T) {
	t.Setenv("MARKETCORE_BACKEND", "gorm")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadReadsEnvOverride(t *testing.T) {
	t.Setenv("MARKETCORE_LIQUIDITY", "250")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 250.0, cfg.DefaultLiquidity)
}

func TestLoadAcceptsMissingYAMLFile(t *testing.T) {
	_, err := os.Stat("/nonexistent/path/config.yaml")
	require.Error(t, err)
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	require.Equal(t, BackendJSON, cfg.PersistenceBackend)
}
