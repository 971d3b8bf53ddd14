package cmd

import (
	"fmt"

	"github.com/theirongolddev/flightrec/internal/cli"
	"github.com/theirongolddev/flightrec/internal/pipeline"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Tool timing breakdown",
	RunE:  runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}
	if len(result.Reports) == 0 {
		fmt.Println("\n  No session logs found.")
		return nil
	}

	filtered, since, until := applyFilters(result.Reports)
	tools := pipeline.AggregateTools(filtered, since, until)

	if len(tools) == 0 {
		fmt.Println("\n  No tool data in the selected time range.")
		return nil
	}

	cfg := appConfig()

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("TOOL TIMINGS  Last %dd", flagDays)))
	fmt.Println()

	rows := make([][]string, 0, len(tools))
	for _, t := range tools {
		slow := ""
		if t.AvgSecs > cfg.Tracker.SpeedThresholdSecs {
			slow = "slow"
		}
		rows = append(rows, []string{
			t.Name,
			cli.FormatNumber(int64(t.Calls)),
			cli.FormatSecs(t.TotalSecs),
			cli.FormatSecs(t.AvgSecs),
			slow,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Tool", "Calls", "Total", "Avg", ""},
		Rows:    rows,
	}))

	fmt.Printf("  Slow = avg above %.0fs threshold\n\n", cfg.Tracker.SpeedThresholdSecs)

	return nil
}
