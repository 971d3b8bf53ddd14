package hook

import (
	"math"
	"testing"
	"time"

	"github.com/theirongolddev/flightrec/internal/config"
)

var testBase = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestObserver(cfg config.TrackerConfig) *Observer {
	return NewObserver(cfg, config.DefaultPricingTable(), nil)
}

func TestProviderPost_CostAccounting(t *testing.T) {
	o := newTestObserver(config.TrackerConfig{Model: "gpt-4o"})

	res := o.HandleEvent(Event{
		Type:      ProviderPost,
		Timestamp: testBase,
		Usage:     Usage{InputTokens: 1_000_000, OutputTokens: 500_000},
	})

	// gpt-4o: $2.50/M in + $10.00/M out -> 2.50 + 5.00
	if math.Abs(o.totalCost-7.50) > 1e-9 {
		t.Fatalf("totalCost = %.4f, want 7.50", o.totalCost)
	}
	if res.UserMessage == "" || res.UserMessageLevel != LevelWarning {
		t.Fatalf("expected cost warning, got %+v", res)
	}
	if res.Action != ActionContinue {
		t.Fatalf("action = %q, want continue", res.Action)
	}
	if o.costThreshold != 8 {
		t.Fatalf("costThreshold = %.2f, want 8 (ceil of 7.50)", o.costThreshold)
	}
	if o.tokenUsage.InputTokens != 1_000_000 || o.tokenUsage.OutputTokens != 500_000 {
		t.Fatalf("tokenUsage = %+v", o.tokenUsage)
	}
	if o.turnCount != 1 {
		t.Fatalf("turnCount = %d, want 1", o.turnCount)
	}
}

func TestProviderPost_ThresholdRatchet(t *testing.T) {
	o := newTestObserver(config.TrackerConfig{Model: "gpt-4o"})

	// 1M input tokens -> $2.50, crosses the $1 default threshold.
	res := o.HandleEvent(Event{Type: ProviderPost, Usage: Usage{InputTokens: 1_000_000}})
	if res.UserMessage == "" {
		t.Fatal("first crossing produced no warning")
	}
	if o.costThreshold != 3 {
		t.Fatalf("costThreshold = %.2f, want 3", o.costThreshold)
	}

	// +$0.25: still inside the $3 band, no second warning.
	res = o.HandleEvent(Event{Type: ProviderPost, Usage: Usage{InputTokens: 100_000}})
	if res.UserMessage != "" {
		t.Fatalf("warning fired inside the same dollar band: %q", res.UserMessage)
	}

	// +$0.50: crosses $3, ratchets to $4.
	res = o.HandleEvent(Event{Type: ProviderPost, Usage: Usage{InputTokens: 200_000}})
	if res.UserMessage == "" {
		t.Fatal("no warning after crossing the ratcheted boundary")
	}
	if o.costThreshold != 4 {
		t.Fatalf("costThreshold = %.2f, want 4", o.costThreshold)
	}
}

func TestProviderPost_UnknownModelFallsBack(t *testing.T) {
	o := newTestObserver(config.TrackerConfig{Model: "local-ollama-thing", CostThresholdUSD: 100})

	o.HandleEvent(Event{Type: ProviderPost, Usage: Usage{InputTokens: 1_000_000}})

	// Falls back to the default model's input rate ($3/M).
	if math.Abs(o.totalCost-3.00) > 1e-9 {
		t.Fatalf("totalCost = %.4f, want 3.00 via default pricing", o.totalCost)
	}
}

func TestToolTiming_Correlation(t *testing.T) {
	o := newTestObserver(config.TrackerConfig{SpeedThresholdSecs: 10.0})

	o.HandleEvent(Event{Type: ToolPre, ToolName: "bash", ToolUseID: "a", Timestamp: testBase})
	res := o.HandleEvent(Event{
		Type: ToolPost, ToolName: "bash", ToolUseID: "a",
		Timestamp: testBase.Add(12 * time.Second),
	})

	if res.UserMessageLevel != LevelWarning {
		t.Fatalf("expected slow-tool warning, got %+v", res)
	}
	if res.UserMessage != "slow tool: bash took 12.0s" {
		t.Fatalf("warning = %q", res.UserMessage)
	}

	times := o.toolTimings["bash"]
	if len(times) != 1 || math.Abs(times[0]-12.0) > 1e-9 {
		t.Fatalf("toolTimings[bash] = %v, want [12.0]", times)
	}
	if len(o.inFlight) != 0 {
		t.Fatalf("inFlight not cleared: %v", o.inFlight)
	}
}

func TestToolTiming_FastToolNoWarning(t *testing.T) {
	o := newTestObserver(config.TrackerConfig{SpeedThresholdSecs: 10.0})

	o.HandleEvent(Event{Type: ToolPre, ToolName: "grep", ToolUseID: "b", Timestamp: testBase})
	res := o.HandleEvent(Event{
		Type: ToolPost, ToolName: "grep", ToolUseID: "b",
		Timestamp: testBase.Add(200 * time.Millisecond),
	})

	if res.UserMessage != "" {
		t.Fatalf("unexpected warning: %q", res.UserMessage)
	}
	if len(o.toolTimings["grep"]) != 1 {
		t.Fatal("duration not recorded for fast tool")
	}
}

func TestToolPost_UnmatchedIDSkipsTiming(t *testing.T) {
	o := newTestObserver(config.TrackerConfig{})

	res := o.HandleEvent(Event{Type: ToolPost, ToolName: "bash", ToolUseID: "never-seen"})
	if res.Action != ActionContinue || res.UserMessage != "" {
		t.Fatalf("unmatched tool_post result = %+v, want bare continue", res)
	}
	if len(o.toolTimings) != 0 {
		t.Fatalf("timing recorded for unmatched id: %v", o.toolTimings)
	}
}

func TestConcurrentInvocations_SameTool(t *testing.T) {
	o := newTestObserver(config.TrackerConfig{SpeedThresholdSecs: 100})

	o.HandleEvent(Event{Type: ToolPre, ToolName: "bash", ToolUseID: "x", Timestamp: testBase})
	o.HandleEvent(Event{Type: ToolPre, ToolName: "bash", ToolUseID: "y", Timestamp: testBase.Add(1 * time.Second)})
	o.HandleEvent(Event{Type: ToolPost, ToolName: "bash", ToolUseID: "y", Timestamp: testBase.Add(3 * time.Second)})
	o.HandleEvent(Event{Type: ToolPost, ToolName: "bash", ToolUseID: "x", Timestamp: testBase.Add(6 * time.Second)})

	times := o.toolTimings["bash"]
	if len(times) != 2 {
		t.Fatalf("recorded %d durations, want 2", len(times))
	}
	if math.Abs(times[0]-2.0) > 1e-9 || math.Abs(times[1]-6.0) > 1e-9 {
		t.Fatalf("durations = %v, want [2.0 6.0]", times)
	}
}

func TestInjectionCadence(t *testing.T) {
	o := newTestObserver(config.TrackerConfig{CostThresholdUSD: 1000, InjectFrequency: 2})
	o.HandleEvent(Event{Type: SessionStart, Timestamp: testBase})

	for turn := 1; turn <= 4; turn++ {
		res := o.HandleEvent(Event{
			Type:      ProviderPost,
			Timestamp: testBase.Add(time.Duration(turn) * time.Minute),
			Usage:     Usage{InputTokens: 100, OutputTokens: 100},
		})

		wantInject := turn == 2 || turn == 4
		gotInject := res.ContextInjection != ""
		if gotInject != wantInject {
			t.Fatalf("turn %d: injection = %v, want %v", turn, gotInject, wantInject)
		}
		if gotInject {
			if !res.Ephemeral || !res.SuppressOutput || res.ContextInjectionRole != "system" {
				t.Fatalf("turn %d: injection flags wrong: %+v", turn, res)
			}
			if o.lastInjectionTurn != turn {
				t.Fatalf("turn %d: lastInjectionTurn = %d", turn, o.lastInjectionTurn)
			}
		}
	}
}

func TestSessionEnd_ReportDelivery(t *testing.T) {
	o := NewObserver(config.TrackerConfig{Model: "gpt-4o", CostThresholdUSD: 1000},
		config.DefaultPricingTable(), nil)
	o.HandleEvent(Event{Type: SessionStart, Timestamp: testBase})
	o.HandleEvent(Event{Type: ToolPre, ToolName: "grep", ToolUseID: "g1", Timestamp: testBase.Add(time.Second)})
	o.HandleEvent(Event{Type: ToolPost, ToolName: "grep", ToolUseID: "g1", Timestamp: testBase.Add(2 * time.Second)})
	o.HandleEvent(Event{
		Type:      ProviderPost,
		Timestamp: testBase.Add(3 * time.Second),
		Usage:     Usage{InputTokens: 10_000, OutputTokens: 2_000},
	})
	o.HandleEvent(Event{Type: SessionEnd, Timestamp: testBase.Add(10 * time.Second)})

	report := o.Report()
	if report.Turns != 1 {
		t.Fatalf("Turns = %d, want 1", report.Turns)
	}
	if report.TotalTokens() != 12_000 {
		t.Fatalf("TotalTokens = %d, want 12000", report.TotalTokens())
	}
	if math.Abs(report.ElapsedSecs()-10.0) > 1e-9 {
		t.Fatalf("ElapsedSecs = %.1f, want 10.0", report.ElapsedSecs())
	}
	if len(report.Tools) != 1 || report.Tools[0].Name != "grep" || report.Tools[0].Calls != 1 {
		t.Fatalf("Tools = %+v", report.Tools)
	}
}

func TestSafe_RecoversPanic(t *testing.T) {
	h := Safe(panicHandler{})
	res := h.HandleEvent(Event{Type: ProviderPost})
	if res.Action != ActionContinue {
		t.Fatalf("Safe handler returned %+v, want bare continue", res)
	}
}

type panicHandler struct{}

func (panicHandler) HandleEvent(Event) Result {
	panic("boom")
}
