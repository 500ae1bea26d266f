package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Resanso/substation-simulator/internal/logging"
	"github.com/Resanso/substation-simulator/internal/simulation"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print generated snapshots as JSON without sending them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ticks, _ := cmd.Flags().GetInt("ticks")
			if ticks <= 0 {
				return fmt.Errorf("--ticks must be positive, got %d", ticks)
			}

			cfg, err := loadConfig(cmd, logging.NewLogger(os.Getenv("LOG_LEVEL"), os.Stderr))
			if err != nil {
				return err
			}
			// Nothing is transmitted, so collector and id source settings do not matter.
			if err := cfg.ValidateGenerator(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			catalog, err := loadCatalog(cfg)
			if err != nil {
				return fmt.Errorf("sensor catalog: %w", err)
			}
			opts := append(catalog.Options(), simulation.WithSeed(cfg.Seed))
			gen, err := simulation.NewGenerator(catalog.Model, catalog.Sensors, opts...)
			if err != nil {
				return fmt.Errorf("generator: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for i := 0; i < ticks; i++ {
				if err := enc.Encode(gen.Advance()); err != nil {
					return fmt.Errorf("encode snapshot: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().Int("ticks", 1, "Number of snapshots to generate")
	return cmd
}
