package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/flightrec/internal/config"
	"github.com/theirongolddev/flightrec/internal/source"
	"github.com/theirongolddev/flightrec/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, _ := config.Load()

	files, _ := source.ScanDir(flagDataDir)

	welcome := "A few defaults for tracking your agent sessions."
	if len(files) > 0 {
		welcome = fmt.Sprintf("Found %d recorded sessions in %s.", len(files), flagDataDir)
	}

	modelVal := cfg.Tracker.Model
	costVal := strconv.FormatFloat(cfg.Tracker.CostThresholdUSD, 'f', -1, 64)
	speedVal := strconv.FormatFloat(cfg.Tracker.SpeedThresholdSecs, 'f', -1, 64)
	themeVal := cfg.Appearance.Theme

	themeOpts := make([]huh.Option[string], len(theme.All))
	for i, th := range theme.All {
		themeOpts[i] = huh.NewOption(th.Name, th.Name)
	}

	validateFloat := func(s string) error {
		if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return fmt.Errorf("enter a number")
		}
		return nil
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to flightrec").
				Description(welcome),
			huh.NewInput().
				Title("Default model").
				Description("Used to price turns that don't name a model.").
				Value(&modelVal),
			huh.NewInput().
				Title("Cost warning threshold (USD)").
				Description("First warning fires when session cost crosses this.").
				Validate(validateFloat).
				Value(&costVal),
			huh.NewInput().
				Title("Slow tool threshold (seconds)").
				Validate(validateFloat).
				Value(&speedVal),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&themeVal),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	if m := strings.TrimSpace(modelVal); m != "" {
		cfg.Tracker.Model = m
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(costVal), 64); err == nil && v > 0 {
		cfg.Tracker.CostThresholdUSD = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(speedVal), 64); err == nil && v > 0 {
		cfg.Tracker.SpeedThresholdSecs = v
	}
	if themeVal != "" {
		cfg.Appearance.Theme = themeVal
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `flightrec setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}
