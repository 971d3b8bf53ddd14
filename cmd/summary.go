package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/flightrec/internal/cli"
	"github.com/theirongolddev/flightrec/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Usage summary across replayed sessions",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}

	if len(result.Reports) == 0 {
		fmt.Println("\n  No session logs found.")
		fmt.Printf("  Record a session first (flightrec daemon), then come back.\n")
		return nil
	}

	filtered, since, until := applyFilters(result.Reports)
	stats := pipeline.Aggregate(filtered, since, until)

	if stats.TotalSessions == 0 {
		fmt.Println("\n  No sessions in the selected time range.")
		return nil
	}

	// Previous period for comparison
	prevDuration := until.Sub(since)
	prevSince := since.Add(-prevDuration)
	prevStats := pipeline.Aggregate(filtered, prevSince, since)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SESSION SUMMARY  Last %dd", flagDays)))
	fmt.Println()

	rows := [][]string{
		{"Sessions", cli.FormatNumber(int64(stats.TotalSessions))},
		{"Turns", cli.FormatNumber(int64(stats.TotalTurns))},
		{"Total Time", cli.FormatDuration(stats.TotalDurationSecs)},
		{"Active Days", cli.FormatNumber(int64(stats.ActiveDays))},
		{"---"},
		{"Input Tokens", cli.FormatTokens(stats.InputTokens)},
		{"Output Tokens", cli.FormatTokens(stats.OutputTokens)},
		{"Total Tokens", cli.FormatTokens(stats.TotalTokens)},
		{"---"},
		{"Cost (est)", cli.FormatCost(stats.EstimatedCost)},
		{"Cost Warnings", cli.FormatNumber(int64(stats.CostWarnings))},
		{"Slow Tool Warnings", cli.FormatNumber(int64(stats.SlowToolWarnings))},
		{"---"},
	}

	costDayStr := fmt.Sprintf("%s/day", cli.FormatCost(stats.CostPerDay))
	if prevStats.CostPerDay > 0 {
		costDayStr += fmt.Sprintf("  (prev %dd: %s/day)",
			flagDays, cli.FormatCost(prevStats.CostPerDay))
	}
	rows = append(rows, []string{"Cost/day", costDayStr})
	rows = append(rows, []string{"Tokens/day", cli.FormatTokens(stats.TokensPerDay)})
	rows = append(rows, []string{"Sessions/day", fmt.Sprintf("%.1f", stats.SessionsPerDay)})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	// Daily cost sparkline, oldest day first
	days := pipeline.AggregateDays(filtered, since, until)
	if len(days) > 1 {
		values := make([]float64, len(days))
		for i, d := range days {
			values[len(days)-1-i] = d.EstimatedCost
		}
		fmt.Printf("  Daily cost  %s\n\n", cli.RenderSparkline(values))
	}

	if result.FileErrors > 0 {
		fmt.Fprintf(os.Stderr, "\n  %d files could not be read\n", result.FileErrors)
	}

	return nil
}
