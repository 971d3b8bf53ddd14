package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/flightrec/internal/config"
	"github.com/theirongolddev/flightrec/internal/hook"
	"github.com/theirongolddev/flightrec/internal/model"
	"github.com/theirongolddev/flightrec/internal/source"
)

func writeSessionLog(t *testing.T, dir, sessionID, lines string) source.DiscoveredFile {
	t.Helper()
	path := filepath.Join(dir, sessionID+".jsonl")
	if err := os.WriteFile(path, []byte(lines), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return source.DiscoveredFile{Path: path, SessionID: sessionID}
}

const sampleLog = `{"type":"session_start","timestamp":"2026-03-14T09:00:00Z"}
{"type":"tool_pre","timestamp":"2026-03-14T09:00:01Z","tool_name":"grep","tool_use_id":"t1"}
{"type":"tool_post","timestamp":"2026-03-14T09:00:03Z","tool_name":"grep","tool_use_id":"t1"}
{"type":"tool_pre","timestamp":"2026-03-14T09:00:04Z","tool_name":"read_file","tool_use_id":"t2"}
{"type":"tool_post","timestamp":"2026-03-14T09:00:05Z","tool_name":"read_file","tool_use_id":"t2"}
{"type":"provider_post","timestamp":"2026-03-14T09:00:08Z","model":"gpt-4o","usage":{"input_tokens":1000000,"output_tokens":500000}}
{"type":"session_end","timestamp":"2026-03-14T09:00:10Z"}
`

func TestReplay_ProducesSessionReport(t *testing.T) {
	df := writeSessionLog(t, t.TempDir(), "s1", sampleLog)
	cfg := config.DefaultConfig()

	report, parseErrors, err := Replay(df, cfg, cfg.BuildPricingTable())
	if err != nil {
		t.Fatalf("Replay error: %v", err)
	}
	if parseErrors != 0 {
		t.Fatalf("parse errors = %d, want 0", parseErrors)
	}

	if report.SessionID != "s1" {
		t.Errorf("SessionID = %q, want s1", report.SessionID)
	}
	if report.FilePath != df.Path {
		t.Errorf("FilePath = %q, want %q", report.FilePath, df.Path)
	}
	if report.Turns != 1 {
		t.Errorf("Turns = %d, want 1", report.Turns)
	}

	// gpt-4o: $2.50/MTok in, $10.00/MTok out
	wantCost := 2.50 + 5.00
	if diff := report.EstimatedCost - wantCost; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("EstimatedCost = %.4f, want %.4f", report.EstimatedCost, wantCost)
	}
	if report.TotalTokens() != 1_500_000 {
		t.Errorf("TotalTokens = %d", report.TotalTokens())
	}

	if len(report.Tools) != 2 {
		t.Fatalf("Tools = %+v, want 2 entries", report.Tools)
	}
	// sorted by name
	if report.Tools[0].Name != "grep" || report.Tools[1].Name != "read_file" {
		t.Errorf("tool order = %s, %s", report.Tools[0].Name, report.Tools[1].Name)
	}
	if report.Tools[0].TotalSecs != 2.0 {
		t.Errorf("grep TotalSecs = %.1f, want 2.0", report.Tools[0].TotalSecs)
	}

	if report.FinalPhase != "exploration" {
		t.Errorf("FinalPhase = %q, want exploration", report.FinalPhase)
	}
	if len(report.Phases) == 0 {
		t.Error("Phases empty, want the in-progress phase recorded")
	}
	if got := report.ElapsedSecs(); got != 10.0 {
		t.Errorf("ElapsedSecs = %.1f, want 10.0", got)
	}
}

func TestReplay_EmptyLogProducesNoTurns(t *testing.T) {
	df := writeSessionLog(t, t.TempDir(), "empty", "")
	cfg := config.DefaultConfig()

	report, _, err := Replay(df, cfg, cfg.BuildPricingTable())
	if err != nil {
		t.Fatalf("Replay error: %v", err)
	}
	if report.Turns != 0 || len(report.Tools) != 0 {
		t.Fatalf("empty log produced activity: %+v", report)
	}
}

func TestLoad_ReplaysAllSessions(t *testing.T) {
	dataDir := t.TempDir()
	sessions := filepath.Join(dataDir, "sessions")
	if err := os.MkdirAll(sessions, 0o750); err != nil {
		t.Fatal(err)
	}
	writeSessionLog(t, sessions, "s1", sampleLog)
	writeSessionLog(t, sessions, "s2", sampleLog)
	writeSessionLog(t, sessions, "idle", "")

	var lastCurrent, lastTotal int
	result, err := Load(dataDir, config.DefaultConfig(), func(current, total int) {
		lastCurrent, lastTotal = current, total
	})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if result.TotalFiles != 3 {
		t.Errorf("TotalFiles = %d, want 3", result.TotalFiles)
	}
	if result.ParsedFiles != 3 {
		t.Errorf("ParsedFiles = %d, want 3", result.ParsedFiles)
	}
	// idle log has no turns or tools, so it is dropped
	if len(result.Reports) != 2 {
		t.Fatalf("Reports = %d, want 2", len(result.Reports))
	}
	if lastCurrent != 3 || lastTotal != 3 {
		t.Errorf("final progress = %d/%d, want 3/3", lastCurrent, lastTotal)
	}
}

func TestDispatch_CollectsDecisions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tracker.CostThresholdUSD = 1.0
	d := NewDispatcher(cfg, cfg.BuildPricingTable(), nil)

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	d.Dispatch(hook.Event{Type: hook.SessionStart, Timestamp: base})

	decisions := d.Dispatch(hook.Event{
		Type:      hook.ProviderPost,
		Timestamp: base.Add(5 * time.Second),
		Model:     "gpt-4o",
		Usage:     hook.Usage{InputTokens: 1_000_000, OutputTokens: 500_000},
	})

	if len(decisions) == 0 {
		t.Fatal("crossing the cost threshold produced no decision")
	}
	if decisions[0].UserMessageLevel != hook.LevelWarning {
		t.Errorf("level = %q, want warning", decisions[0].UserMessageLevel)
	}
}

func reportFixture(id string, start time.Time, cost float64, phase string) model.SessionReport {
	return model.SessionReport{
		SessionID:     id,
		StartTime:     start,
		EndTime:       start.Add(10 * time.Minute),
		Turns:         4,
		InputTokens:   1000,
		OutputTokens:  500,
		EstimatedCost: cost,
		Models: map[string]*model.ModelUsage{
			"claude-sonnet-4-5": {Turns: 4, InputTokens: 1000, OutputTokens: 500, EstimatedCost: cost},
		},
		Tools: []model.ToolStat{
			{Name: "bash", Calls: 2, AvgSecs: 3.0, TotalSecs: 6.0},
		},
		FinalPhase: phase,
		Phases: []model.PhaseRecord{
			{Phase: phase, DurationSecs: 600, StartedAt: start},
		},
	}
}

func TestAggregate_Summary(t *testing.T) {
	day1 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	day2 := time.Date(2026, 3, 15, 9, 0, 0, 0, time.Local)
	reports := []model.SessionReport{
		reportFixture("a", day1, 1.5, "exploration"),
		reportFixture("b", day1.Add(2*time.Hour), 2.5, "implementation"),
		reportFixture("c", day2, 4.0, "implementation"),
	}

	stats := Aggregate(reports, time.Time{}, time.Time{})
	if stats.TotalSessions != 3 {
		t.Errorf("TotalSessions = %d, want 3", stats.TotalSessions)
	}
	if stats.TotalTurns != 12 {
		t.Errorf("TotalTurns = %d, want 12", stats.TotalTurns)
	}
	if stats.ActiveDays != 2 {
		t.Errorf("ActiveDays = %d, want 2", stats.ActiveDays)
	}
	if stats.EstimatedCost != 8.0 {
		t.Errorf("EstimatedCost = %.2f, want 8.00", stats.EstimatedCost)
	}
	if stats.CostPerDay != 4.0 {
		t.Errorf("CostPerDay = %.2f, want 4.00", stats.CostPerDay)
	}
	if stats.TotalTokens != 4500 {
		t.Errorf("TotalTokens = %d, want 4500", stats.TotalTokens)
	}
}

func TestAggregatePhases_SharesAndSort(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	reports := []model.SessionReport{
		reportFixture("a", start, 1.0, "exploration"),
		reportFixture("b", start, 1.0, "implementation"),
		reportFixture("c", start, 1.0, "implementation"),
	}

	phases := AggregatePhases(reports, time.Time{}, time.Time{})
	if len(phases) != 2 {
		t.Fatalf("phases = %+v, want 2 entries", phases)
	}
	if phases[0].Phase != "implementation" {
		t.Errorf("top phase = %q, want implementation", phases[0].Phase)
	}
	if phases[0].Visits != 2 || phases[0].TotalSecs != 1200 {
		t.Errorf("implementation = %+v", phases[0])
	}
	wantShare := 1200.0 / 1800.0 * 100
	if diff := phases[0].SharePercent - wantShare; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("SharePercent = %.2f, want %.2f", phases[0].SharePercent, wantShare)
	}
}

func TestAggregateTools_MergesAcrossSessions(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	reports := []model.SessionReport{
		reportFixture("a", start, 1.0, "exploration"),
		reportFixture("b", start, 1.0, "exploration"),
	}

	tools := AggregateTools(reports, time.Time{}, time.Time{})
	if len(tools) != 1 {
		t.Fatalf("tools = %+v, want 1 entry", tools)
	}
	if tools[0].Calls != 4 || tools[0].TotalSecs != 12.0 || tools[0].AvgSecs != 3.0 {
		t.Errorf("bash = %+v", tools[0])
	}
}

func TestFilterByTime_HalfOpenRange(t *testing.T) {
	day1 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	day2 := time.Date(2026, 3, 15, 9, 0, 0, 0, time.Local)
	reports := []model.SessionReport{
		reportFixture("a", day1, 1.0, "exploration"),
		reportFixture("b", day2, 1.0, "exploration"),
	}

	got := FilterByTime(reports, day1, day2)
	if len(got) != 1 || got[0].SessionID != "a" {
		t.Fatalf("filtered = %+v, want only session a", got)
	}
}

func TestAggregateCostBreakdown_SplitsDirections(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	reports := []model.SessionReport{{
		SessionID: "a",
		StartTime: start,
		Models: map[string]*model.ModelUsage{
			"gpt-4o": {Turns: 1, InputTokens: 1_000_000, OutputTokens: 500_000},
		},
	}}

	cfg := config.DefaultConfig()
	totals, rows := AggregateCostBreakdown(reports, cfg.BuildPricingTable(), time.Time{}, time.Time{})

	if totals.InputCost != 2.5 {
		t.Errorf("InputCost = %.2f, want 2.50", totals.InputCost)
	}
	if totals.OutputCost != 5.0 {
		t.Errorf("OutputCost = %.2f, want 5.00", totals.OutputCost)
	}
	if totals.TotalCost != 7.5 {
		t.Errorf("TotalCost = %.2f, want 7.50", totals.TotalCost)
	}
	if len(rows) != 1 || rows[0].Model != "gpt-4o" {
		t.Fatalf("rows = %+v", rows)
	}
}
