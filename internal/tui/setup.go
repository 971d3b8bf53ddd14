package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/flightrec/internal/config"
	"github.com/theirongolddev/flightrec/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// setupValues holds the first-run form answers.
type setupValues struct {
	model         string
	costThreshold string
	speedLimit    string
	themeName     string
}

// newSetupForm builds the first-run configuration form.
func newSetupForm(cfg config.Config, vals *setupValues) *huh.Form {
	vals.model = cfg.Tracker.Model
	vals.costThreshold = strconv.FormatFloat(cfg.Tracker.CostThresholdUSD, 'f', -1, 64)
	vals.speedLimit = strconv.FormatFloat(cfg.Tracker.SpeedThresholdSecs, 'f', -1, 64)
	vals.themeName = cfg.Appearance.Theme

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

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to flightrec").
				Description("A few defaults for tracking your agent sessions."),
			huh.NewInput().
				Title("Default model").
				Description("Used to price turns that don't name a model.").
				Value(&vals.model),
			huh.NewInput().
				Title("Cost warning threshold (USD)").
				Description("First warning fires when session cost crosses this.").
				Validate(validateFloat).
				Value(&vals.costThreshold),
			huh.NewInput().
				Title("Slow tool threshold (seconds)").
				Validate(validateFloat).
				Value(&vals.speedLimit),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.themeName),
		),
	)
}

// saveSetupConfig persists the form answers and returns the resulting config.
func (a *App) saveSetupConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	if m := strings.TrimSpace(a.setupVals.model); m != "" {
		cfg.Tracker.Model = m
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(a.setupVals.costThreshold), 64); err == nil && v > 0 {
		cfg.Tracker.CostThresholdUSD = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(a.setupVals.speedLimit), 64); err == nil && v > 0 {
		cfg.Tracker.SpeedThresholdSecs = v
	}
	if a.setupVals.themeName != "" {
		cfg.Appearance.Theme = a.setupVals.themeName
		theme.SetActive(cfg.Appearance.Theme)
	}

	_ = config.Save(cfg)
	return cfg
}
