package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/flightrec/internal/cli"
	"github.com/theirongolddev/flightrec/internal/config"
	"github.com/theirongolddev/flightrec/internal/model"
	"github.com/theirongolddev/flightrec/internal/pipeline"
	"github.com/theirongolddev/flightrec/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagDays    int
	flagModel   string
	flagPhase   string
	flagNoCache bool
	flagDataDir string
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "flightrec",
	Short: "Agent session flight recorder",
	Long:  "Replay and analyze agent session logs: costs, tool timings, and workflow phases.",
	RunE:  runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cfg, _ := config.Load()

	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", cfg.General.DefaultDays, "Time window in days")
	rootCmd.PersistentFlags().StringVarP(&flagModel, "model", "m", "", "Filter to model (substring match)")
	rootCmd.PersistentFlags().StringVar(&flagPhase, "phase", "", "Filter to sessions ending in phase")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, replay everything")
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", config.DataDir(cfg), "Session log directory")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// appConfig loads the user config, falling back to defaults on error.
func appConfig() config.Config {
	cfg, _ := config.Load()
	return cfg
}

// loadData is the shared loading path used by all report commands.
// Uses the SQLite report cache when available so repeat runs only replay
// logs that changed on disk.
func loadData() (*pipeline.LoadResult, error) {
	cfg := appConfig()

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning session logs...\n")
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%100 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Replaying [%d/%d]", current, total)
		}
	}

	// Try cached load unless --no-cache
	if !flagNoCache {
		cache, err := store.Open(pipeline.CachePath())
		if err != nil {
			if !flagQuiet {
				fmt.Fprintf(os.Stderr, "  Cache unavailable, doing full replay\n")
			}
		} else {
			defer func() { _ = cache.Close() }()

			cr, err := pipeline.LoadWithCache(flagDataDir, cfg, cache, progressFn)
			if err != nil {
				if !flagQuiet {
					fmt.Fprintf(os.Stderr, "\n  Cache error, falling back to full replay\n")
				}
			} else {
				if !flagQuiet && cr.TotalFiles > 0 {
					if cr.Replayed == 0 {
						fmt.Fprintf(os.Stderr, "\r  Loaded %s sessions from cache    \n",
							cli.FormatNumber(int64(len(cr.Reports))))
					} else {
						fmt.Fprintf(os.Stderr, "\r  %s cached + %d replayed    \n",
							cli.FormatNumber(int64(cr.CacheHits)), cr.Replayed)
					}
				}
				return &cr.LoadResult, nil
			}
		}
	}

	// Uncached path
	result, err := pipeline.Load(flagDataDir, cfg, progressFn)
	if err != nil {
		return nil, err
	}

	if !flagQuiet && result.TotalFiles > 0 {
		fmt.Fprintf(os.Stderr, "\r  Replayed %s sessions    \n",
			cli.FormatNumber(int64(result.ParsedFiles)))
	}

	return result, nil
}

// applyFilters returns filtered reports and the computed time range.
func applyFilters(reports []model.SessionReport) ([]model.SessionReport, time.Time, time.Time) {
	now := time.Now()
	since := now.AddDate(0, 0, -flagDays)
	until := now

	filtered := reports
	if flagModel != "" {
		filtered = pipeline.FilterByModel(filtered, flagModel)
	}
	if flagPhase != "" {
		filtered = pipeline.FilterByPhase(filtered, flagPhase)
	}

	return filtered, since, until
}
