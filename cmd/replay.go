package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/flightrec/internal/cli"
	"github.com/theirongolddev/flightrec/internal/pipeline"
	"github.com/theirongolddev/flightrec/internal/source"

	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file.jsonl>",
	Short: "Replay one session log and show its full report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(_ *cobra.Command, args []string) error {
	path := args[0]
	cfg := appConfig()

	df := source.DiscoveredFile{
		Path:      path,
		SessionID: strings.TrimSuffix(filepath.Base(path), ".jsonl"),
	}

	report, parseErrors, err := pipeline.Replay(df, cfg, cfg.BuildPricingTable())
	if err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SESSION REPLAY  " + report.SessionID))
	fmt.Println()

	rows := [][]string{
		{"Turns", cli.FormatNumber(int64(report.Turns))},
		{"Duration", cli.FormatSecs(report.ElapsedSecs())},
		{"Input Tokens", cli.FormatTokens(report.InputTokens)},
		{"Output Tokens", cli.FormatTokens(report.OutputTokens)},
		{"Cost (est)", cli.FormatCost(report.EstimatedCost)},
		{"---"},
		{"Cost Warnings", cli.FormatNumber(int64(report.CostWarnings))},
		{"Slow Tool Warnings", cli.FormatNumber(int64(report.SlowToolWarnings))},
		{"Injections", cli.FormatNumber(int64(report.Injections))},
	}
	if report.FinalPhase != "" {
		rows = append(rows, []string{"---"})
		rows = append(rows, []string{"Final Phase", fmt.Sprintf("%s (%s)",
			report.FinalPhase, cli.FormatConfidence(report.PhaseConfidence))})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if len(report.Tools) > 0 {
		toolRows := make([][]string, 0, len(report.Tools))
		for _, t := range report.Tools {
			toolRows = append(toolRows, []string{
				t.Name,
				cli.FormatNumber(int64(t.Calls)),
				cli.FormatSecs(t.TotalSecs),
				cli.FormatSecs(t.AvgSecs),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Tool Timings",
			Headers: []string{"Tool", "Calls", "Total", "Avg"},
			Rows:    toolRows,
		}))
	}

	if len(report.Phases) > 0 {
		lines := make([]string, 0, len(report.Phases))
		for _, p := range report.Phases {
			lines = append(lines, fmt.Sprintf("%-14s %s", p.Phase, cli.FormatSecs(p.DurationSecs)))
		}
		fmt.Println(cli.RenderTree("Phase History", lines))
	}

	if parseErrors > 0 {
		fmt.Printf("  %d malformed lines skipped\n", parseErrors)
	}
	fmt.Println()

	return nil
}
