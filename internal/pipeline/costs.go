package pipeline

import (
	"sort"
	"time"

	"github.com/theirongolddev/flightrec/internal/config"
	"github.com/theirongolddev/flightrec/internal/model"
)

// TokenTypeCosts holds aggregate costs split by token direction.
type TokenTypeCosts struct {
	InputCost  float64
	OutputCost float64
	TotalCost  float64
}

// ModelCostBreakdown holds cost components for one model.
type ModelCostBreakdown struct {
	Model      string
	InputCost  float64
	OutputCost float64
	TotalCost  float64
}

// AggregateCostBreakdown splits estimated costs into input and output
// components, in total and per model. Recomputing from token counts lets
// the breakdown reflect pricing overrides the original session never saw.
func AggregateCostBreakdown(
	reports []model.SessionReport,
	pricing *config.PricingTable,
	since time.Time,
	until time.Time,
) (TokenTypeCosts, []ModelCostBreakdown) {
	filtered := FilterByTime(reports, since, until)

	var totals TokenTypeCosts
	byModel := make(map[string]*ModelCostBreakdown)

	for _, r := range filtered {
		for modelName, usage := range r.Models {
			mp, ok := pricing.Lookup(modelName)
			if !ok {
				continue
			}

			inputCost := float64(usage.InputTokens) * mp.InputPerMTok / 1_000_000
			outputCost := float64(usage.OutputTokens) * mp.OutputPerMTok / 1_000_000

			totals.InputCost += inputCost
			totals.OutputCost += outputCost

			row, exists := byModel[modelName]
			if !exists {
				row = &ModelCostBreakdown{Model: modelName}
				byModel[modelName] = row
			}
			row.InputCost += inputCost
			row.OutputCost += outputCost
		}
	}

	totals.TotalCost = totals.InputCost + totals.OutputCost

	modelRows := make([]ModelCostBreakdown, 0, len(byModel))
	for _, row := range byModel {
		row.TotalCost = row.InputCost + row.OutputCost
		modelRows = append(modelRows, *row)
	}

	sort.Slice(modelRows, func(i, j int) bool {
		return modelRows[i].TotalCost > modelRows[j].TotalCost
	})

	return totals, modelRows
}
