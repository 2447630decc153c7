package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	content := `
httpPort: 9000
logLevel: debug
database:
  host: db.internal
  port: 5432
  db_name: analyzer
metricsSource:
  endpoint: http://prom:9090
  query_timeout_seconds: 5
analysis:
  min_samples: 8
  anomaly_strategy: mad
thresholds:
  cpu:
    used_percent:
      warning: 75
      critical: 92
alerts:
  cooldown_minutes: 30
  channels:
    - name: ops
      type: webhook
      config:
        url: http://hook
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HttpPort)
	assert.Equal(t, ":9000", cfg.GetHttpAddr())
	assert.NoError(t, cfg.Database.Validate())
	assert.Equal(t, 5*time.Second, cfg.MetricsSource.GetQueryTimeout())
	assert.Equal(t, 8, cfg.Analysis.GetMinSamples())
	assert.Equal(t, "mad", cfg.Analysis.GetAnomalyStrategy())
	assert.Equal(t, 75.0, cfg.Thresholds.CPU.GetUsedPercent().Warning)
	assert.Equal(t, 30*time.Minute, cfg.Alerts.GetCooldown())
	require.Len(t, cfg.Alerts.Channels, 1)
	assert.Equal(t, "http://hook", cfg.Alerts.Channels[0].Config["url"])
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	assert.Equal(t, ":8080", cfg.GetHttpAddr())
	assert.Equal(t, 10*time.Second, cfg.MetricsSource.GetQueryTimeout())
	assert.Equal(t, 5, cfg.Analysis.GetMinSamples())
	assert.Equal(t, time.Hour, cfg.Analysis.GetBaselineWindow())
	assert.Equal(t, 30, cfg.Analysis.GetBaselineStep())
	assert.Equal(t, 2.5, cfg.Analysis.GetAnomalyThreshold())
	assert.Equal(t, "zscore", cfg.Analysis.GetAnomalyStrategy())
	assert.Equal(t, 5, cfg.Analysis.GetTrendMinSamples())
	assert.Equal(t, 0.6, cfg.Analysis.GetTrendMinRSquared())
	assert.Equal(t, 25.0, cfg.Analysis.GetHealthPenalty("critical"))
	assert.Equal(t, 10.0, cfg.Analysis.GetHealthPenalty("warning"))
	assert.Equal(t, 1.0, cfg.Analysis.GetComponentWeight("cpu"))

	assert.Equal(t, 0.7, cfg.Thresholds.Database.GetPoolUtilization().Warning)
	assert.Equal(t, 95.0, cfg.Thresholds.Memory.GetUsedPercent().Critical)
	assert.Equal(t, float64(1<<20), cfg.Thresholds.Memory.GetLeakSlopePerMin())
	assert.Equal(t, 0.8, cfg.Thresholds.Memory.GetCacheHitRateFloor())
	assert.Equal(t, 5, cfg.Thresholds.CPU.GetSustainedPolls())

	assert.Equal(t, 15*time.Minute, cfg.Alerts.GetCooldown())
	assert.Equal(t, 3, cfg.Alerts.GetRetryCount())
	assert.Equal(t, time.Second, cfg.Alerts.GetRetryWait())
}

func TestDatabaseConfigValidate(t *testing.T) {
	assert.Error(t, DatabaseConfig{}.Validate())
	assert.NoError(t, DatabaseConfig{Host: "h", Port: 5432, DBName: "d"}.Validate())
}
