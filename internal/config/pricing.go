package config

import "strings"

// ModelPricing holds per-million-token prices for a model.
type ModelPricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// PricingTable maps model identifiers to prices. Lookups for unknown models
// fall back to DefaultModel, so cost accounting never fails on a model the
// table has not heard of. The table is read-only after construction; share
// one instance across components.
type PricingTable struct {
	DefaultModel string
	Models       map[string]ModelPricing
}

// DefaultPricingTable returns the built-in pricing table (USD per 1M tokens).
func DefaultPricingTable() *PricingTable {
	return &PricingTable{
		DefaultModel: "claude-sonnet-4-5",
		Models: map[string]ModelPricing{
			"claude-sonnet-4-5":          {InputPerMTok: 3.00, OutputPerMTok: 15.00},
			"claude-sonnet-4":            {InputPerMTok: 3.00, OutputPerMTok: 15.00},
			"claude-opus-4":              {InputPerMTok: 15.00, OutputPerMTok: 75.00},
			"claude-3-5-sonnet-20241022": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
			"claude-3-5-sonnet-20240620": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
			"claude-3-opus-20240229":     {InputPerMTok: 15.00, OutputPerMTok: 75.00},
			"claude-3-sonnet-20240229":   {InputPerMTok: 3.00, OutputPerMTok: 15.00},
			"claude-3-haiku-20240307":    {InputPerMTok: 0.25, OutputPerMTok: 1.25},
			"gpt-4-turbo":                {InputPerMTok: 10.00, OutputPerMTok: 30.00},
			"gpt-4":                      {InputPerMTok: 30.00, OutputPerMTok: 60.00},
			"gpt-4o":                     {InputPerMTok: 2.50, OutputPerMTok: 10.00},
			"gpt-4o-mini":                {InputPerMTok: 0.15, OutputPerMTok: 0.60},
			"gpt-3.5-turbo":              {InputPerMTok: 0.50, OutputPerMTok: 1.50},
		},
	}
}

// NormalizeModelName strips date suffixes from model identifiers.
// e.g., "claude-sonnet-4-5-20250929" -> "claude-sonnet-4-5"
func (t *PricingTable) NormalizeModelName(raw string) string {
	if _, ok := t.Models[raw]; ok {
		return raw
	}

	// Strip last segment if it looks like a date (8+ digits)
	parts := strings.Split(raw, "-")
	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		if isAllDigits(last) && len(last) >= 8 {
			candidate := strings.Join(parts[:len(parts)-1], "-")
			if _, ok := t.Models[candidate]; ok {
				return candidate
			}
		}
	}

	return raw
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Lookup returns the pricing for a model, normalizing the name first.
// Unknown models resolve to the default model's entry; the boolean reports
// whether the model itself was found.
func (t *PricingTable) Lookup(model string) (ModelPricing, bool) {
	normalized := t.NormalizeModelName(model)
	if p, ok := t.Models[normalized]; ok {
		return p, true
	}
	return t.Models[t.DefaultModel], false
}

// CalculateCost computes the estimated cost in USD for one provider response.
func (t *PricingTable) CalculateCost(model string, inputTokens, outputTokens int64) float64 {
	pricing, _ := t.Lookup(model)
	cost := float64(inputTokens) * pricing.InputPerMTok / 1_000_000
	cost += float64(outputTokens) * pricing.OutputPerMTok / 1_000_000
	return cost
}
