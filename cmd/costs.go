package cmd

import (
	"fmt"

	"github.com/theirongolddev/flightrec/internal/cli"
	"github.com/theirongolddev/flightrec/internal/pipeline"

	"github.com/spf13/cobra"
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Cost breakdown by token direction and model",
	RunE:  runCosts,
}

func init() {
	rootCmd.AddCommand(costsCmd)
}

func runCosts(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}
	if len(result.Reports) == 0 {
		fmt.Println("\n  No session logs found.")
		return nil
	}

	cfg := appConfig()
	pricing := cfg.BuildPricingTable()

	filtered, since, until := applyFilters(result.Reports)
	stats := pipeline.Aggregate(filtered, since, until)
	tokenCosts, modelCosts := pipeline.AggregateCostBreakdown(filtered, pricing, since, until)

	if stats.TotalSessions == 0 {
		fmt.Println("\n  No sessions in the selected time range.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("COST BREAKDOWN  Last %dd", flagDays)))
	fmt.Println()

	totalCost := tokenCosts.TotalCost

	typeRows := make([][]string, 0, 4)
	for _, tc := range []struct {
		name string
		cost float64
	}{
		{"Output", tokenCosts.OutputCost},
		{"Input", tokenCosts.InputCost},
	} {
		pct := ""
		if totalCost > 0 {
			pct = cli.FormatPercent(tc.cost / totalCost)
		}
		typeRows = append(typeRows, []string{tc.name, cli.FormatCost(tc.cost), pct})
	}
	typeRows = append(typeRows, []string{"---"})
	typeRows = append(typeRows, []string{"TOTAL", cli.FormatCost(totalCost), ""})

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "By Direction",
		Headers: []string{"Type", "Cost", "Share"},
		Rows:    typeRows,
	}))

	// Period comparison
	prevDuration := until.Sub(since)
	prevStats := pipeline.Aggregate(filtered, since.Add(-prevDuration), since)
	if prevStats.EstimatedCost > 0 {
		fmt.Printf("  This %dd: %s   Prev %dd: %s\n\n",
			flagDays, cli.FormatCost(stats.EstimatedCost),
			flagDays, cli.FormatCost(prevStats.EstimatedCost))
	}

	modelRows := make([][]string, 0, len(modelCosts)+2)
	for _, mc := range modelCosts {
		modelRows = append(modelRows, []string{
			shortModel(mc.Model),
			cli.FormatCost(mc.InputCost),
			cli.FormatCost(mc.OutputCost),
			cli.FormatCost(mc.TotalCost),
		})
	}
	modelRows = append(modelRows, []string{"---"})
	modelRows = append(modelRows, []string{
		"TOTAL",
		cli.FormatCost(tokenCosts.InputCost),
		cli.FormatCost(tokenCosts.OutputCost),
		cli.FormatCost(totalCost),
	})

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "By Model",
		Headers: []string{"Model", "Input", "Output", "Total"},
		Rows:    modelRows,
	}))

	return nil
}

func shortModel(name string) string {
	// "claude-sonnet-4-5" -> "sonnet-4-5"
	if len(name) > 7 && name[:7] == "claude-" {
		return name[7:]
	}
	return name
}
