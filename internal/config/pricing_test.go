package config

import (
	"math"
	"testing"
)

func TestLookup_KnownModel(t *testing.T) {
	table := DefaultPricingTable()

	p, ok := table.Lookup("gpt-4o")
	if !ok {
		t.Fatal("Lookup returned !ok for gpt-4o")
	}
	if p.InputPerMTok != 2.50 || p.OutputPerMTok != 10.00 {
		t.Fatalf("gpt-4o pricing = %.2f/%.2f, want 2.50/10.00", p.InputPerMTok, p.OutputPerMTok)
	}
}

func TestLookup_UnknownModelFallsBackToDefault(t *testing.T) {
	table := DefaultPricingTable()

	p, ok := table.Lookup("totally-made-up-model")
	if ok {
		t.Fatal("Lookup returned ok for unknown model")
	}
	want := table.Models[table.DefaultModel]
	if p != want {
		t.Fatalf("fallback pricing = %+v, want default model pricing %+v", p, want)
	}
}

func TestNormalizeModelName_StripsDateSuffix(t *testing.T) {
	table := DefaultPricingTable()

	got := table.NormalizeModelName("claude-sonnet-4-5-20250929")
	if got != "claude-sonnet-4-5" {
		t.Fatalf("NormalizeModelName = %q, want claude-sonnet-4-5", got)
	}

	// An entry that itself ends in a date must not be stripped further.
	got = table.NormalizeModelName("claude-3-5-sonnet-20241022")
	if got != "claude-3-5-sonnet-20241022" {
		t.Fatalf("NormalizeModelName = %q, want claude-3-5-sonnet-20241022", got)
	}
}

func TestCalculateCost(t *testing.T) {
	table := DefaultPricingTable()

	cost := table.CalculateCost("gpt-4o", 1_000_000, 500_000)
	if math.Abs(cost-7.50) > 1e-9 {
		t.Fatalf("cost = %.4f, want 7.50", cost)
	}

	cost = table.CalculateCost("no-such-model", 1_000_000, 0)
	if math.Abs(cost-3.00) > 1e-9 {
		t.Fatalf("fallback cost = %.4f, want 3.00 (default model input rate)", cost)
	}
}

func TestBuildPricingTable_AppliesOverrides(t *testing.T) {
	in := 1.25
	cfg := DefaultConfig()
	cfg.Pricing.Overrides = map[string]ModelPricingOverride{
		"gpt-4o": {InputPerMTok: &in},
	}

	table := cfg.BuildPricingTable()
	p, ok := table.Lookup("gpt-4o")
	if !ok {
		t.Fatal("Lookup returned !ok for overridden model")
	}
	if p.InputPerMTok != 1.25 {
		t.Fatalf("override InputPerMTok = %.2f, want 1.25", p.InputPerMTok)
	}
	if p.OutputPerMTok != 10.00 {
		t.Fatalf("untouched OutputPerMTok = %.2f, want 10.00", p.OutputPerMTok)
	}
}
