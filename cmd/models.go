package cmd

import (
	"fmt"
	"sort"

	"github.com/theirongolddev/flightrec/internal/cli"
	"github.com/theirongolddev/flightrec/internal/pipeline"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Model usage breakdown and pricing table",
	RunE:  runModels,
}

var modelsPricingOnly bool

func init() {
	modelsCmd.Flags().BoolVar(&modelsPricingOnly, "pricing", false, "Show only the pricing table")
	rootCmd.AddCommand(modelsCmd)
}

func runModels(_ *cobra.Command, _ []string) error {
	cfg := appConfig()
	pricing := cfg.BuildPricingTable()

	if !modelsPricingOnly {
		result, err := loadData()
		if err != nil {
			return err
		}

		filtered, since, until := applyFilters(result.Reports)
		models := pipeline.AggregateModels(filtered, since, until)

		if len(models) > 0 {
			fmt.Println()
			fmt.Println(cli.RenderTitle(fmt.Sprintf("MODEL USAGE  Last %dd", flagDays)))
			fmt.Println()

			rows := make([][]string, 0, len(models))
			for _, ms := range models {
				rows = append(rows, []string{
					shortModel(ms.Model),
					cli.FormatNumber(int64(ms.Turns)),
					cli.FormatTokens(ms.InputTokens),
					cli.FormatTokens(ms.OutputTokens),
					cli.FormatCost(ms.EstimatedCost),
					fmt.Sprintf("%.1f%%", ms.SharePercent),
				})
			}

			fmt.Print(cli.RenderTable(cli.Table{
				Headers: []string{"Model", "Turns", "Input", "Output", "Cost", "Share"},
				Rows:    rows,
			}))
		} else {
			fmt.Println("\n  No model data in the selected time range.")
		}
	}

	// Pricing table, including config overrides
	names := make([]string, 0, len(pricing.Models))
	for name := range pricing.Models {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		p := pricing.Models[name]
		marker := ""
		if name == pricing.DefaultModel {
			marker = "default"
		}
		rows = append(rows, []string{
			name,
			fmt.Sprintf("$%.2f", p.InputPerMTok),
			fmt.Sprintf("$%.2f", p.OutputPerMTok),
			marker,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Pricing (USD per 1M tokens)",
		Headers: []string{"Model", "Input", "Output", ""},
		Rows:    rows,
	}))

	return nil
}
