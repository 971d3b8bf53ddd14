package cmd

import (
	"fmt"

	"github.com/theirongolddev/flightrec/internal/cli"
	"github.com/theirongolddev/flightrec/internal/pipeline"
	"github.com/theirongolddev/flightrec/internal/trajectory"

	"github.com/spf13/cobra"
)

var phasesCmd = &cobra.Command{
	Use:   "phases",
	Short: "Workflow phase breakdown",
	RunE:  runPhases,
}

func init() {
	rootCmd.AddCommand(phasesCmd)
}

func runPhases(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}
	if len(result.Reports) == 0 {
		fmt.Println("\n  No session logs found.")
		return nil
	}

	filtered, since, until := applyFilters(result.Reports)
	phases := pipeline.AggregatePhases(filtered, since, until)

	if len(phases) == 0 {
		fmt.Println("\n  No phase data in the selected time range.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("WORKFLOW PHASES  Last %dd", flagDays)))
	fmt.Println()

	rows := make([][]string, 0, len(phases))
	for _, p := range phases {
		rows = append(rows, []string{
			p.Phase,
			cli.FormatNumber(int64(p.Visits)),
			cli.FormatSecs(p.TotalSecs),
			cli.FormatSecs(p.AvgSecs),
			fmt.Sprintf("%.1f%%", p.SharePercent),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Phase", "Visits", "Total", "Avg", "Share"},
		Rows:    rows,
	}))

	// Typical paths out of each observed phase
	catalog := trajectory.DefaultCatalog()
	lines := make([]string, 0, len(phases))
	for _, p := range phases {
		if next := catalog.Transitions[p.Phase]; len(next) > 0 {
			lines = append(lines, fmt.Sprintf("%s -> %s", p.Phase, next[0]))
		}
	}
	if len(lines) > 0 {
		fmt.Println(cli.RenderTree("Typical Transitions", lines))
		fmt.Println()
	}

	return nil
}
