package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir()) // no config file present

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:2379"}, cfg.EtcdEndpoints)
	assert.Equal(t, 5*time.Second, cfg.EtcdTimeout)
	assert.Equal(t, ":8080", cfg.HttpListenAddr)
	assert.Equal(t, 200*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.RetryInterval)
	assert.Equal(t, 5*time.Second, cfg.RepairStatusDelay)
	assert.Equal(t, "*/30 * * * * *", cfg.HealthBroadcastSpec)
	assert.Equal(t, "0x7200000000000001:0x1", cfg.NodeFid)
}

func TestLoadEnvOverride(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_LISTEN_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HttpListenAddr)
}

func TestLoadRejectsInvalidCronSpec(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())
	t.Setenv("HEALTH_BROADCAST_SPEC", "not a cron spec")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadRejectsInvalidNodeFid(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())
	t.Setenv("NODE_FID", "not-a-fid")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
