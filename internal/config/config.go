package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"FeeAllocator/internal/calculator"
	"FeeAllocator/internal/retry"
)

// Config holds all application configuration.
type Config struct {
	Asset struct {
		ID              string `yaml:"id"`
		OperatingWallet string `yaml:"operating_wallet"`
	} `yaml:"asset"`
	Gateway struct {
		BaseURL       string        `yaml:"base_url"`
		APIKey        string        `yaml:"api_key"`
		RatePerSecond float64       `yaml:"rate_per_second"`
		Burst         int           `yaml:"burst"`
		Timeout       time.Duration `yaml:"timeout"`
		DryRun        bool          `yaml:"dry_run"`
	} `yaml:"gateway"`
	Distribution struct {
		Split           calculator.Percentages `yaml:"split"`
		NativeDecimals  int32                  `yaml:"native_decimals"`
		MinDistribution string                 `yaml:"min_distribution"`
		OperatingBuffer string                 `yaml:"operating_buffer"`
		MinHolders      int                    `yaml:"min_holders"`
	} `yaml:"distribution"`
	Momentum struct {
		Period        int   `yaml:"period"`
		SampleOnCycle *bool `yaml:"sample_on_cycle"`
	} `yaml:"momentum"`
	Retry    retry.Policy `yaml:"retry"`
	Schedule struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"schedule"`
	State struct {
		File      string `yaml:"file"`
		RedisAddr string `yaml:"redis_addr"`
		RedisKey  string `yaml:"redis_key"`
	} `yaml:"state"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	API struct {
		Listen *string `yaml:"listen"`
	} `yaml:"api"`
	Proxy string `yaml:"proxy"`
	Log   struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("ASSET_ID"); v != "" {
		cfg.Asset.ID = v
	}
	if v := os.Getenv("OPERATING_WALLET"); v != "" {
		cfg.Asset.OperatingWallet = v
	}
	if v := os.Getenv("FEE_GATEWAY_URL"); v != "" {
		cfg.Gateway.BaseURL = v
	}
	if v := os.Getenv("FEE_GATEWAY_API_KEY"); v != "" {
		cfg.Gateway.APIKey = v
	}
	if v := os.Getenv("DRY_RUN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("DRY_RUN: %w", err)
		}
		cfg.Gateway.DryRun = b
	}
	if v := os.Getenv("LOOP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("LOOP_INTERVAL: %w", err)
		}
		cfg.Schedule.Interval = d
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.State.RedisAddr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v, ok := os.LookupEnv("API_LISTEN"); ok {
		cfg.API.Listen = &v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Gateway.RatePerSecond == 0 {
		c.Gateway.RatePerSecond = 5
	}
	if c.Gateway.Burst == 0 {
		c.Gateway.Burst = 5
	}
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = 30 * time.Second
	}
	if c.Distribution.Split == (calculator.Percentages{}) {
		c.Distribution.Split = calculator.DefaultPercentages
	}
	if c.Distribution.NativeDecimals == 0 {
		c.Distribution.NativeDecimals = 9
	}
	if c.Distribution.MinDistribution == "" {
		c.Distribution.MinDistribution = "0.0001"
	}
	if c.Distribution.OperatingBuffer == "" {
		c.Distribution.OperatingBuffer = "0.005"
	}
	if c.Distribution.MinHolders == 0 {
		c.Distribution.MinHolders = 5
	}
	if c.Momentum.Period == 0 {
		c.Momentum.Period = calculator.DefaultPeriod
	}
	if c.Momentum.SampleOnCycle == nil {
		on := true
		c.Momentum.SampleOnCycle = &on
	}
	def := retry.DefaultPolicy()
	if c.Retry.Attempts == 0 {
		c.Retry.Attempts = def.Attempts
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = def.BaseDelay
	}
	if c.Retry.CallTimeout == 0 {
		c.Retry.CallTimeout = def.CallTimeout
	}
	if c.Schedule.Interval == 0 {
		c.Schedule.Interval = 10 * time.Minute
	}
	if c.State.File == "" {
		c.State.File = "data/engine_state.json"
	}
	if c.State.RedisKey == "" && c.Asset.ID != "" {
		c.State.RedisKey = "feebot:state:" + c.Asset.ID
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/fee_allocator.db"
	}
	if c.API.Listen == nil {
		listen := "127.0.0.1:8080"
		c.API.Listen = &listen
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Asset.ID == "" {
		return fmt.Errorf("asset.id is required")
	}
	if c.Gateway.BaseURL == "" && !c.Gateway.DryRun {
		return fmt.Errorf("gateway.base_url is required unless gateway.dry_run is set")
	}
	if err := c.Distribution.Split.Validate(); err != nil {
		return fmt.Errorf("distribution.split: %w", err)
	}
	if c.Distribution.NativeDecimals < 0 || c.Distribution.NativeDecimals > 18 {
		return fmt.Errorf("distribution.native_decimals must be within 0..18, got %d", c.Distribution.NativeDecimals)
	}
	if _, err := c.MinDistributionUnits(); err != nil {
		return err
	}
	if _, err := c.OperatingBufferUnits(); err != nil {
		return err
	}
	if c.Distribution.MinHolders < 1 {
		return fmt.Errorf("distribution.min_holders must be positive")
	}
	if c.Momentum.Period < 1 {
		return fmt.Errorf("momentum.period must be positive")
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be positive")
	}
	if c.Schedule.Interval < time.Second {
		return fmt.Errorf("schedule.interval must be at least 1s, got %s", c.Schedule.Interval)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// MinDistributionUnits returns distribution.min_distribution in native units.
func (c *Config) MinDistributionUnits() (int64, error) {
	return ToNativeUnits(c.Distribution.MinDistribution, c.Distribution.NativeDecimals)
}

// OperatingBufferUnits returns distribution.operating_buffer in native units.
func (c *Config) OperatingBufferUnits() (int64, error) {
	return ToNativeUnits(c.Distribution.OperatingBuffer, c.Distribution.NativeDecimals)
}

// SampleOnCycle reports whether each cycle fetches a fresh price.
func (c *Config) SampleOnCycle() bool {
	return c.Momentum.SampleOnCycle == nil || *c.Momentum.SampleOnCycle
}

// APIListen returns the HTTP listen address, "" when disabled.
func (c *Config) APIListen() string {
	if c.API.Listen == nil {
		return ""
	}
	return *c.API.Listen
}

// ToNativeUnits converts a decimal amount of whole currency into integer
// native units. Fractions below one native unit are rejected.
func ToNativeUnits(amount string, decimals int32) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q must not be negative", amount)
	}
	units := d.Shift(decimals)
	if !units.Equal(units.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than %d decimals", amount, decimals)
	}
	if units.GreaterThan(decimal.NewFromInt(1<<62)) {
		return 0, fmt.Errorf("amount %q out of range", amount)
	}
	return units.IntPart(), nil
}
