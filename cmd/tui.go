package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/theirongolddev/flightrec/internal/emitter"
	"github.com/theirongolddev/flightrec/internal/tui"
	"github.com/theirongolddev/flightrec/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var flagTUIReplay bool

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive dashboard",
	Long:  "Dashboard over the live daemon when one is running, otherwise over replayed session logs.",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&flagTUIReplay, "replay", false, "Force replay mode even if a daemon is running")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg := appConfig()
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes.
	// Without this, lipgloss may default to Ascii profile (no colors).
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Attach to the daemon when one answers, otherwise replay from disk.
	var client *emitter.Client
	if !flagTUIReplay {
		probe := emitter.NewClient(cfg.Daemon.Addr)
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		if probe.Healthy(ctx) {
			client = probe
		}
		cancel()
	}

	app := tui.NewApp(cfg, flagDataDir, client)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
