package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FeeAllocator/internal/calculator"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ASSET_ID", "MINT")
	t.Setenv("DRY_RUN", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, calculator.DefaultPercentages, cfg.Distribution.Split)
	assert.Equal(t, 10*time.Minute, cfg.Schedule.Interval)
	assert.Equal(t, 4, cfg.Retry.Attempts)
	assert.Equal(t, "feebot:state:MINT", cfg.State.RedisKey)
	assert.Equal(t, "127.0.0.1:8080", cfg.APIListen())
	assert.True(t, cfg.SampleOnCycle())

	min, err := cfg.MinDistributionUnits()
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), min)
	buf, err := cfg.OperatingBufferUnits()
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000), buf)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
asset:
  id: FILEASSET
  operating_wallet: ops-wallet
gateway:
  base_url: https://fees.example
  timeout: 5s
distribution:
  split: {burn: 40, buyback: 20, holder_reward: 20, lp_pool: 20}
  min_distribution: "0.001"
momentum:
  period: 7
  sample_on_cycle: false
retry:
  attempts: 2
  base_delay: 500ms
schedule:
  interval: 1m
api:
  listen: ""
`)
	t.Setenv("ASSET_ID", "ENVASSET")
	t.Setenv("LOOP_INTERVAL", "90s")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "ENVASSET", cfg.Asset.ID)
	assert.Equal(t, "ops-wallet", cfg.Asset.OperatingWallet)
	assert.Equal(t, 5*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, int64(40), cfg.Distribution.Split.Burn)
	assert.Equal(t, 7, cfg.Momentum.Period)
	assert.False(t, cfg.SampleOnCycle())
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 30*time.Second, cfg.Retry.CallTimeout)
	assert.Equal(t, 90*time.Second, cfg.Schedule.Interval)
	assert.Equal(t, "", cfg.APIListen())

	min, err := cfg.MinDistributionUnits()
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), min)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("DRY_RUN", "maybe")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "asset: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.Asset.ID = "MINT"
		c.Gateway.BaseURL = "https://fees.example"
		c.applyDefaults()
		return c
	}
	require.NoError(t, base().Validate())

	cases := map[string]func(c *Config){
		"missing asset":       func(c *Config) { c.Asset.ID = "" },
		"missing gateway":     func(c *Config) { c.Gateway.BaseURL = "" },
		"split not 100":       func(c *Config) { c.Distribution.Split.Burn = 30 },
		"bad min":             func(c *Config) { c.Distribution.MinDistribution = "abc" },
		"too precise buffer":  func(c *Config) { c.Distribution.OperatingBuffer = "0.0000000001" },
		"negative min":        func(c *Config) { c.Distribution.MinDistribution = "-1" },
		"interval too short":  func(c *Config) { c.Schedule.Interval = 10 * time.Millisecond },
		"telegram half set":   func(c *Config) { c.Telegram.BotToken = "token" },
		"zero min holders":    func(c *Config) { c.Distribution.MinHolders = -1 },
		"decimals too large":  func(c *Config) { c.Distribution.NativeDecimals = 30 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestToNativeUnits(t *testing.T) {
	v, err := ToNativeUnits("1.5", 9)
	require.NoError(t, err)
	assert.Equal(t, int64(1_500_000_000), v)

	v, err = ToNativeUnits(" 0 ", 9)
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = ToNativeUnits("99999999999", 9)
	assert.Error(t, err)
}
