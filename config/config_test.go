package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeYAML(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "KXNFLGAME", cfg.Run.Series)
	assert.Equal(t, 200*time.Millisecond, cfg.MinInterval())
	assert.Equal(t, 30*time.Second, cfg.PollInterval())
	assert.Equal(t, []time.Duration{6 * time.Hour, 3 * time.Hour, 30 * time.Minute}, cfg.Checkpoints())

	bt, err := cfg.Backtest()
	require.NoError(t, err)
	assert.Equal(t, int64(900), bt.PregameLookbackSec)
	assert.Equal(t, 0.60, bt.FavoriteThreshold)
	assert.Equal(t, 0.50, bt.TriggerThreshold)
	assert.Equal(t, []float64{0.55, 0.60, 0.65, 0.70}, bt.ReversionBands)
	assert.Equal(t, 1, bt.FeeCents)
	assert.Equal(t, 1, bt.SlippageCents)
	assert.Equal(t, int64(15), bt.GraceSec)
	assert.Equal(t, int64(5400), bt.MonitorWindowSec)
	assert.Equal(t, int64(6000), bt.FullGameExtensionSec)
	assert.Equal(t, domain.TimeoutHalftime, bt.Timeout)
	assert.Nil(t, bt.AdverseStop)
}

func TestLoad_ExplicitZeroKept(t *testing.T) {
	cfg, err := Load(writeYAML(t, `
strategy:
  fee_cents: 0
  slippage_cents: 0
  grace_sec: 0
  adverse_stop: 0.12
  reversion_bands: [0.70, 0.55]
  timeout: full
`))
	require.NoError(t, err)

	bt, err := cfg.Backtest()
	require.NoError(t, err)
	assert.Zero(t, bt.FeeCents)
	assert.Zero(t, bt.SlippageCents)
	assert.Zero(t, bt.GraceSec)
	require.NotNil(t, bt.AdverseStop)
	assert.Equal(t, 0.12, *bt.AdverseStop)
	assert.Equal(t, []float64{0.55, 0.70}, bt.ReversionBands)
	assert.Equal(t, domain.TimeoutFullGame, bt.Timeout)
}

func TestBacktest_Invalid(t *testing.T) {
	cfg, err := Load(writeYAML(t, "strategy:\n  reversion_bands: [0.55, 0.55]\n"))
	require.NoError(t, err)
	_, err = cfg.Backtest()
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	cfg, err = Load(writeYAML(t, "strategy:\n  timeout: overtime\n"))
	require.NoError(t, err)
	_, err = cfg.Backtest()
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("KALSHI_BASE", "http://localhost:9999")
	t.Setenv("REVERSION_DB", ":memory:")
	t.Setenv("REVERSION_WORKERS", "3")
	t.Setenv("S3_BUCKET", "artifacts")
	t.Setenv("S3_ACCESS_KEY", "ak")
	t.Setenv("S3_SECRET_KEY", "sk")

	cfg, err := Load(writeYAML(t, "storage:\n  dsn: file.db\nlog:\n  format: text\n"))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "http://localhost:9999", cfg.Kalshi.Base)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
	assert.Equal(t, 3, cfg.Run.Workers)
	assert.Equal(t, "artifacts", cfg.Artifacts.S3.Bucket)
	assert.Equal(t, "ak", cfg.Artifacts.S3.AccessKey)
	assert.Equal(t, "sk", cfg.Artifacts.S3.SecretKey)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeYAML(t, "strategy: [not a map"))
	assert.Error(t, err)
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load("config.yaml")
	require.NoError(t, err)
	_, err = cfg.Backtest()
	assert.NoError(t, err)
}
