package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logAdapter "github.com/parcel-labs/shipsync/internal/adapters/log"
	"github.com/parcel-labs/shipsync/internal/cliconfig"
	"github.com/parcel-labs/shipsync/pkg/shipsync"
)

const helpBanner = `
      _     _
  ___| |__ (_)_ __  ___ _   _ _ __   ___
 / __| '_ \| | '_ \/ __| | | | '_ \ / __|
 \__ \ | | | | |_) \__ \ |_| | | | | (__
 |___/_| |_|_| .__/|___/\__, |_| |_|\___|
             |_|        |___/
`

const helpDescription = `
Keep Odoo delivery orders in sync with DHL tracking, one summary per cycle.

Highlights:
  - Polls every undelivered shipment, writes confirmed changes back to Odoo.
  - One webhook message per cycle; a shipment is announced delivered exactly once.
  - Per-shipment failures never abort the batch; the next cycle retries.
  - Configure via file, environment, or flags.
`

var longHelp = strings.TrimSpace(helpBanner) + "\n\n" + strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  shipsync --odoo-url https://erp.example.com --odoo-db production --once
  shipsync --config $HOME/.shipsync/config.toml
  shipsync track 00340434292135100186
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// libConfig converts the CLI configuration to the library configuration.
func libConfig(cfg cliconfig.Config) shipsync.Config {
	return shipsync.Config{
		OdooURL:       cfg.OdooURL,
		OdooDB:        cfg.OdooDB,
		OdooUsername:  cfg.OdooUsername,
		OdooPassword:  cfg.OdooPassword,
		CarrierURL:    cfg.CarrierURL,
		CarrierAPIKey: cfg.CarrierAPIKey,
		CarrierName:   cfg.CarrierName,
		WebhookURL:    cfg.WebhookURL,
		PollInterval:  cfg.PollInterval,
		CycleTimeout:  cfg.CycleTimeout,
		HTTPTimeout:   cfg.HTTPTimeout,
		Workers:       cfg.Workers,
		Lookback:      cfg.Lookback,
		ShipmentLimit: cfg.ShipmentLimit,
		StatusFile:    cfg.StatusFile,
		Once:          cfg.Once,
	}
}

func main() {
	// Credentials commonly live in a .env next to the binary.
	_ = godotenv.Load()

	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "shipsync",
		Short:   "Keep Odoo delivery orders in sync with DHL tracking",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.shipsync/config.toml),
			// then apply env and flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment overrides the file but is overridden by flags
			// (checked via changed map).
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			// Validate and set derived defaults
			if err := cfg.Validate(); err != nil {
				return err
			}

			// Log configuration (masking secrets)
			logCfg := cfg
			if len(logCfg.OdooPassword) > 0 {
				logCfg.OdooPassword = "*****"
			}
			if len(logCfg.CarrierAPIKey) > 0 {
				logCfg.CarrierAPIKey = "*****"
			}
			log.Info().Interface("config", logCfg).Msg("configuration")

			zerologAdapter := logAdapter.NewZerologAdapterWithLogger(log)

			tracker, err := shipsync.New(libConfig(cfg),
				shipsync.WithLogger(zerologAdapter),
			)
			if err != nil {
				return fmt.Errorf("create tracker: %w", err)
			}

			// Setup signal handling for graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			if err := tracker.Start(ctx); err != nil {
				return fmt.Errorf("start tracker: %w", err)
			}

			// Hot reload: watch the config file and apply tunable changes
			// to the running tracker.
			if cfgFile != "" && cliconfig.FileExists(cfgFile) && !cfg.Once {
				watcher := cliconfig.NewWatcher(cfgFile, cfg, changed, func(next cliconfig.Config) {
					tracker.ApplyConfig(libConfig(next))
				}, zerologAdapter)
				go watcher.Run(ctx)
			}

			// Create done channel to detect completion
			doneCh := make(chan struct{})
			go func() {
				// Poll for completion (for once mode)
				ticker := time.NewTicker(100 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						status := tracker.Status()
						if status == shipsync.StateStopped || status == shipsync.StateCrashed {
							close(doneCh)
							return
						}
					}
				}
			}()

			// Wait for signal or completion
			select {
			case <-sigCh:
				log.Info().Msg("received signal, stopping...")
			case <-doneCh:
				if tracker.Status() == shipsync.StateCrashed {
					log.Error().Msg("tracker crashed")
				}
			}

			// Graceful shutdown
			if err := tracker.Stop(); err != nil {
				return fmt.Errorf("stop tracker: %w", err)
			}
			return nil
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.shipsync/config.toml)")

	root.Flags().StringVar(&cfg.OdooURL, "odoo-url", cfg.OdooURL, "Odoo base URL")
	root.Flags().StringVar(&cfg.OdooDB, "odoo-db", cfg.OdooDB, "Odoo database name")
	root.Flags().StringVar(&cfg.OdooUsername, "odoo-username", cfg.OdooUsername, "Odoo login")
	root.Flags().StringVar(&cfg.OdooPassword, "odoo-password", cfg.OdooPassword, "Odoo password or API key")

	root.Flags().StringVar(&cfg.CarrierURL, "carrier-url", cfg.CarrierURL, "carrier tracking API base URL (override only for testing)")
	if err := root.Flags().MarkHidden("carrier-url"); err != nil {
		log.Info().Err(err).Msg("failed to hide carrier-url flag")
	}
	root.Flags().StringVar(&cfg.CarrierAPIKey, "dhl-api-key", cfg.CarrierAPIKey, "DHL tracking API key")
	root.Flags().StringVar(&cfg.CarrierName, "carrier-name", cfg.CarrierName, "carrier name filter for Odoo pickings")
	root.Flags().StringVar(&cfg.WebhookURL, "webhook-url", cfg.WebhookURL, "webhook URL for cycle summaries (empty disables)")

	root.Flags().DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "pause between reconciliation cycles")
	root.Flags().DurationVar(&cfg.CycleTimeout, "cycle-timeout", cfg.CycleTimeout, "deadline for one cycle (0 disables)")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout per request")

	root.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent carrier queries per cycle")
	root.Flags().DurationVar(&cfg.Lookback, "lookback", cfg.Lookback, "how far back to scan for active shipments")
	root.Flags().IntVar(&cfg.ShipmentLimit, "limit", cfg.ShipmentLimit, "maximum shipments per cycle")

	root.Flags().StringVar(&cfg.StatusFile, "status-file", cfg.StatusFile, "path for last-cycle status JSON (empty disables)")
	if err := root.Flags().MarkHidden("status-file"); err != nil {
		log.Info().Err(err).Msg("failed to hide status-file flag")
	}
	root.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "run a single cycle and exit")

	root.AddCommand(newTrackCmd(&cfg))

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("shipsync")
		os.Exit(1)
	}
}
