package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"FeeAllocator/internal/api"
	"FeeAllocator/internal/config"
	"FeeAllocator/internal/notifier"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runServe(ctx context.Context, opts *globalOptions) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.engine.StartLoop(ctx, a.cfg.Schedule.Interval); err != nil {
		return fmt.Errorf("start loop: %w", err)
	}
	defer a.engine.StopLoop()

	if a.notifier != nil {
		go a.notifier.StartPolling(ctx, notifier.NewCommandHandler(a.engine, a.format))
		log.Info().Msg("telegram polling started")
	}

	var srv *api.Server
	if listen := a.cfg.APIListen(); listen != "" {
		srv = api.NewServer(ctx, listen, a.engine, a.metrics.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				log.Error().Err(err).Msg("http server stopped")
			}
		}()
	}

	log.Info().Str("asset", a.cfg.Asset.ID).Dur("interval", a.cfg.Schedule.Interval).Msg("feebot is running, press Ctrl+C to stop")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}
	return nil
}

func runCycle(ctx context.Context, opts *globalOptions) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()
	return printJSON(a.engine.ClaimAndDistribute(ctx))
}

func runFlush(ctx context.Context, opts *globalOptions) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()
	return printJSON(a.engine.FlushAccumulated(ctx))
}

func runDistribute(ctx context.Context, opts *globalOptions, amount string) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()
	units, err := config.ToNativeUnits(amount, a.cfg.Distribution.NativeDecimals)
	if err != nil {
		return err
	}
	return printJSON(a.engine.DistributeFees(ctx, units))
}

func runStatus(ctx context.Context, opts *globalOptions) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()
	return printJSON(a.engine.Status())
}

func runPrice(ctx context.Context, opts *globalOptions, args []string) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()

	var price float64
	if len(args) == 1 {
		price, err = strconv.ParseFloat(args[0], 64)
		if err != nil || price <= 0 {
			return fmt.Errorf("invalid price %q", args[0])
		}
	}
	p, err := a.engine.UpdatePrice(ctx, price)
	if err != nil {
		return err
	}
	st := a.engine.Status()
	return printJSON(map[string]any{
		"price":           p,
		"momentum":        st.Momentum,
		"momentum_action": st.MomentumAction,
	})
}
