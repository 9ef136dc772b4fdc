package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "feebot"
	version = "v0.4.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Programmable fee allocation engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `feebot claims accrued trading fees for one asset and splits them four ways:
burn, momentum-gated buyback, a weighted holder reward and a locked pool deposit.

Without a subcommand it runs the scheduled loop together with the HTTP
control surface and, if configured, the Telegram bot.`,
		RunE: func(cmd *cobra.Command, args []string) error { return runServe(cmd.Context(), opts) },
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default configs/config.yaml or $CONFIG_PATH)")
	rootCmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "use the in-memory simulator instead of the fee gateway")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the scheduled claim-and-distribute loop",
			RunE:  func(cmd *cobra.Command, args []string) error { return runServe(cmd.Context(), opts) },
		},
		&cobra.Command{
			Use:   "cycle",
			Short: "Run one claim-and-distribute cycle and print the result",
			RunE:  func(cmd *cobra.Command, args []string) error { return runCycle(cmd.Context(), opts) },
		},
		&cobra.Command{
			Use:   "flush",
			Short: "Distribute everything accumulated in the buckets",
			RunE:  func(cmd *cobra.Command, args []string) error { return runFlush(cmd.Context(), opts) },
		},
		&cobra.Command{
			Use:   "distribute <amount>",
			Short: "Distribute an amount of native currency without claiming (e.g. 0.25)",
			Args:  cobra.ExactArgs(1),
			RunE:  func(cmd *cobra.Command, args []string) error { return runDistribute(cmd.Context(), opts, args[0]) },
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print accumulated buckets, momentum and lifetime counters",
			RunE:  func(cmd *cobra.Command, args []string) error { return runStatus(cmd.Context(), opts) },
		},
		&cobra.Command{
			Use:   "price [value]",
			Short: "Feed a price sample; without a value the fee source is asked",
			Args:  cobra.MaximumNArgs(1),
			RunE:  func(cmd *cobra.Command, args []string) error { return runPrice(cmd.Context(), opts, args) },
		},
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("feebot failed")
		os.Exit(1)
	}
}
