package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"FeeAllocator/internal/config"
	"FeeAllocator/internal/engine"
	"FeeAllocator/internal/fund"
	"FeeAllocator/internal/gateway"
	"FeeAllocator/internal/metrics"
	"FeeAllocator/internal/notifier"
	"FeeAllocator/internal/recorder"
)

type globalOptions struct {
	configPath string
	dryRun     bool
	logLevel   string
}

// app holds everything built from the config. close releases it in reverse order.
type app struct {
	cfg      *config.Config
	engine   *engine.Engine
	metrics  *metrics.Registry
	notifier *notifier.TelegramNotifier
	format   notifier.Formatter
	closers  []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
}

func loadConfig(opts *globalOptions) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = "configs/config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.dryRun {
		cfg.Gateway.DryRun = true
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		log.Warn().Str("level", cfg.Log.Level).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Log.JSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

func buildGateway(cfg *config.Config) gateway.Gateway {
	if cfg.Gateway.DryRun {
		sim := gateway.NewSimulator(uint64(time.Now().UnixNano()))
		// one whole unit per claim
		sim.ClaimAmount = pow10(cfg.Distribution.NativeDecimals)
		log.Warn().Msg("dry run: using in-memory simulator, no funds move")
		return sim
	}
	return gateway.NewClient(gateway.ClientConfig{
		BaseURL:       cfg.Gateway.BaseURL,
		APIKey:        cfg.Gateway.APIKey,
		Proxy:         cfg.Proxy,
		Timeout:       cfg.Gateway.Timeout,
		RatePerSecond: cfg.Gateway.RatePerSecond,
		Burst:         cfg.Gateway.Burst,
	})
}

func pow10(n int32) int64 {
	v := int64(1)
	for i := int32(0); i < n; i++ {
		v *= 10
	}
	return v
}

func buildStore(ctx context.Context, cfg *config.Config, a *app) (fund.StateStore, error) {
	if cfg.State.RedisAddr != "" {
		rs, err := fund.NewRedisStore(ctx, cfg.State.RedisAddr, "", 0, cfg.State.RedisKey)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, rs.Close)
		log.Info().Str("addr", cfg.State.RedisAddr).Str("key", cfg.State.RedisKey).Msg("state store: redis")
		return rs, nil
	}
	log.Info().Str("file", cfg.State.File).Msg("state store: file")
	return fund.NewFileStore(cfg.State.File), nil
}

func buildRecorder(cfg *config.Config, a *app) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	a.closers = append(a.closers, sr.Close)
	return sr
}

// engineConfig converts the file config into engine units.
func engineConfig(cfg *config.Config) (engine.Config, error) {
	minDist, err := cfg.MinDistributionUnits()
	if err != nil {
		return engine.Config{}, fmt.Errorf("distribution.min_distribution: %w", err)
	}
	buffer, err := cfg.OperatingBufferUnits()
	if err != nil {
		return engine.Config{}, fmt.Errorf("distribution.operating_buffer: %w", err)
	}
	return engine.Config{
		AssetID:         cfg.Asset.ID,
		OperatingWallet: cfg.Asset.OperatingWallet,
		MinDistribution: minDist,
		OperatingBuffer: buffer,
		Percentages:     cfg.Distribution.Split,
		MomentumPeriod:  cfg.Momentum.Period,
		SampleOnCycle:   cfg.SampleOnCycle(),
		MinHolders:      cfg.Distribution.MinHolders,
		Retry:           cfg.Retry,
	}, nil
}

// newApp builds the engine and its collaborators and restores saved state.
func newApp(ctx context.Context, opts *globalOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg)

	a := &app{
		cfg:     cfg,
		metrics: metrics.New(),
		format:  notifier.Formatter{Decimals: cfg.Distribution.NativeDecimals},
	}

	ecfg, err := engineConfig(cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg, a)
	if err != nil {
		a.close()
		return nil, err
	}
	engineOpts := []engine.Option{
		engine.WithStore(store),
		engine.WithRecorder(buildRecorder(cfg, a)),
		engine.WithMetrics(a.metrics),
	}
	if cfg.Telegram.BotToken != "" {
		a.notifier = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, a.format)
		engineOpts = append(engineOpts, engine.WithReporter(a.notifier))
	}

	gw := buildGateway(cfg)
	log.Info().Str("gateway", gw.Name()).Str("asset", cfg.Asset.ID).Msg("fee gateway ready")

	e, err := engine.New(ecfg, gw, engineOpts...)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("init engine: %w", err)
	}
	if err := e.Load(ctx); err != nil {
		a.close()
		return nil, err
	}
	a.engine = e
	return a, nil
}
