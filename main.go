package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Resanso/substation-simulator/internal/config"
	"github.com/Resanso/substation-simulator/internal/logging"
	"github.com/Resanso/substation-simulator/internal/registry"
	"github.com/Resanso/substation-simulator/internal/report"
	"github.com/Resanso/substation-simulator/internal/server"
	"github.com/Resanso/substation-simulator/internal/simulation"
	"github.com/Resanso/substation-simulator/internal/substation"
	"github.com/Resanso/substation-simulator/internal/transmission"
)

var version = "0.1.0-dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: .env file not loaded: %v\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "substation-sim",
		Short: "District heating substation telemetry simulator",
		Long: `substation-sim generates synthetic temperature and pressure readings for a
district heating substation and ships them to a collector every interval.

Settings come from the environment (or a .env file); flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSimulator,
	}

	rootCmd.PersistentFlags().String("model", "", "Generator model: cascade or reverting (default from GENERATOR_MODEL)")
	rootCmd.PersistentFlags().Uint64("seed", 0, "Random seed; 0 seeds from the clock (default from SIM_SEED)")
	rootCmd.PersistentFlags().String("sensors", "", "YAML sensor catalog (default from SENSORS_FILE)")
	rootCmd.Flags().Duration("interval", 0, "Pause between ticks (default from SEND_INTERVAL)")
	rootCmd.Flags().String("status-addr", "", "Listen address of the status API (default from STATUS_ADDR)")

	rootCmd.AddCommand(
		newSnapshotCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig reads the environment and applies command-line overrides.
// Callers validate the result for what they are about to do.
func loadConfig(cmd *cobra.Command, logger *slog.Logger) (config.Config, error) {
	cfg, err := config.FromEnv(logger)
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.Model = v
	}
	if v, _ := cmd.Flags().GetUint64("seed"); v != 0 {
		cfg.Seed = v
	}
	if v, _ := cmd.Flags().GetString("sensors"); v != "" {
		cfg.SensorsFile = v
	}
	if f := cmd.Flags().Lookup("interval"); f != nil {
		if v, _ := cmd.Flags().GetDuration("interval"); v > 0 {
			cfg.Interval = v
		}
	}
	if f := cmd.Flags().Lookup("status-addr"); f != nil {
		if v, _ := cmd.Flags().GetString("status-addr"); v != "" {
			cfg.StatusAddr = v
		}
	}
	return cfg, nil
}

func loadCatalog(cfg config.Config) (simulation.Catalog, error) {
	if cfg.SensorsFile == "" {
		return simulation.BuiltinCatalog(cfg.Model)
	}
	return simulation.LoadCatalog(cfg.SensorsFile, cfg.Model)
}

func runSimulator(cmd *cobra.Command, _ []string) error {
	bootstrap := logging.NewLogger(os.Getenv("LOG_LEVEL"), os.Stderr)
	cfg, err := loadConfig(cmd, bootstrap)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, logPath, closeLog := logging.New(cfg.LogLevel, os.Stdout, cfg.LogFile, logging.FallbackFile)
	defer closeLog()
	logger = logger.With("run", uuid.NewString())
	if logPath == "" {
		logger.Warn("no log file could be opened, logging to console only", "file", cfg.LogFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return fmt.Errorf("sensor catalog: %w", err)
	}

	resolver, closeResolver := newResolver(ctx, cfg, logger)
	defer closeResolver()
	sensors := registry.ResolveSensors(ctx, resolver, catalog.Sensors, logger)

	opts := append(catalog.Options(), simulation.WithSeed(cfg.Seed))
	gen, err := simulation.NewGenerator(catalog.Model, sensors, opts...)
	if err != nil {
		return fmt.Errorf("generator: %w", err)
	}

	sink, err := newSink(ctx, cfg)
	if err != nil {
		return fmt.Errorf("collector: %w", err)
	}
	tx := transmission.New(sink, transmission.Identity{Device: cfg.DeviceID, Location: cfg.Location}, sensors,
		transmission.WithTimeout(cfg.SendTimeout),
		transmission.WithLogger(logger),
	)
	defer func() {
		if err := tx.Close(); err != nil {
			logger.Warn("closing collector", "err", err)
		}
	}()

	rep := report.New(os.Stdout, logger, sensors)
	runner := substation.New(gen, tx, rep,
		substation.WithInterval(cfg.Interval),
		substation.WithStatsEvery(cfg.StatsEvery),
		substation.WithLogger(logger),
	)

	if cfg.StatusAddr != "" {
		srv := &http.Server{
			Addr: cfg.StatusAddr,
			Handler: server.NewRouter(server.Dependencies{
				Runner:      runner,
				Device:      cfg.DeviceID,
				Logger:      logger,
				CORSOrigins: cfg.CORSOrigins,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("status API listening", "addr", cfg.StatusAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status API stopped", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	rep.Start(report.Banner{
		Device:   cfg.DeviceID,
		Location: cfg.Location,
		Target:   cfg.Target(),
		Interval: runner.Interval(),
		Model:    gen.Name(),
		Sensors:  len(sensors),
	})
	return runner.Run(ctx)
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "substation-sim version %s\n", version)
		},
	}
	return cmd
}
