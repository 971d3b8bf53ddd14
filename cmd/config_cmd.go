// Package cmd implements the flightrec CLI commands.
package cmd

import (
	"fmt"

	"github.com/theirongolddev/flightrec/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Default days: %d\n", cfg.General.DefaultDays)
	fmt.Printf("    Data dir:     %s\n", config.DataDir(cfg))
	fmt.Println()

	fmt.Println("  [Tracker]")
	fmt.Printf("    Default model:       %s\n", cfg.Tracker.Model)
	fmt.Printf("    Cost threshold:      $%.2f\n", cfg.Tracker.CostThresholdUSD)
	fmt.Printf("    Slow tool threshold: %.0fs\n", cfg.Tracker.SpeedThresholdSecs)
	fmt.Printf("    Inject frequency:    every %d turns\n", cfg.Tracker.InjectFrequency)
	fmt.Println()

	fmt.Println("  [Trajectory]")
	fmt.Printf("    Window size:      %d tools\n", cfg.Trajectory.WindowSize)
	fmt.Printf("    Inject frequency: every %d turns\n", cfg.Trajectory.InjectFrequency)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:       %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Events buffer: %d\n", cfg.Daemon.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	if len(cfg.Pricing.Overrides) > 0 {
		fmt.Println("  [Pricing]")
		if cfg.Pricing.DefaultModel != "" {
			fmt.Printf("    Default model: %s\n", cfg.Pricing.DefaultModel)
		}
		fmt.Printf("    Overrides: %d models\n", len(cfg.Pricing.Overrides))
		fmt.Println()
	}

	fmt.Println("  Run `flightrec setup` to reconfigure.")
	return nil
}
