package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/flightrec/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "reports.db"))
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSaveAndLoadReport(t *testing.T) {
	c := openTestCache(t)

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	in := model.SessionReport{
		SessionID:        "s1",
		FilePath:         "/data/sessions/s1.jsonl",
		StartTime:        start,
		EndTime:          start.Add(10 * time.Minute),
		Turns:            6,
		InputTokens:      12000,
		OutputTokens:     3000,
		EstimatedCost:    0.42,
		SlowToolWarnings: 1,
		CostWarnings:     0,
		Injections:       2,
		FinalPhase:       "implementation",
		PhaseConfidence:  0.71,
		Models: map[string]*model.ModelUsage{
			"claude-sonnet-4-5": {Turns: 6, InputTokens: 12000, OutputTokens: 3000, EstimatedCost: 0.42},
		},
		Tools: []model.ToolStat{
			{Name: "bash", Calls: 3, AvgSecs: 2.0, TotalSecs: 6.0},
			{Name: "write_file", Calls: 2, AvgSecs: 0.5, TotalSecs: 1.0},
		},
		Phases: []model.PhaseRecord{
			{Phase: "exploration", DurationSecs: 120, StartedAt: start},
			{Phase: "implementation", DurationSecs: 480, StartedAt: start.Add(2 * time.Minute)},
		},
	}

	if err := c.SaveReport(in, 42, 1024); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	reports, err := c.LoadAllReports()
	if err != nil {
		t.Fatalf("LoadAllReports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("loaded %d reports, want 1", len(reports))
	}

	got := reports[0]
	if got.SessionID != "s1" || got.FilePath != in.FilePath {
		t.Errorf("identity fields = %q %q", got.SessionID, got.FilePath)
	}
	if !got.StartTime.Equal(start) || !got.EndTime.Equal(in.EndTime) {
		t.Errorf("times = %v .. %v", got.StartTime, got.EndTime)
	}
	if got.Turns != 6 || got.InputTokens != 12000 || got.OutputTokens != 3000 {
		t.Errorf("counters = %d %d %d", got.Turns, got.InputTokens, got.OutputTokens)
	}
	if got.FinalPhase != "implementation" || got.PhaseConfidence != 0.71 {
		t.Errorf("phase = %q %.2f", got.FinalPhase, got.PhaseConfidence)
	}

	mu, ok := got.Models["claude-sonnet-4-5"]
	if !ok || mu.Turns != 6 || mu.EstimatedCost != 0.42 {
		t.Errorf("model usage = %+v", got.Models)
	}

	if len(got.Tools) != 2 || got.Tools[0].Name != "bash" {
		t.Fatalf("tools = %+v", got.Tools)
	}
	if got.Tools[0].AvgSecs != 2.0 {
		t.Errorf("bash AvgSecs = %.2f, want 2.00 (recomputed)", got.Tools[0].AvgSecs)
	}

	if len(got.Phases) != 2 || got.Phases[0].Phase != "exploration" || got.Phases[1].Phase != "implementation" {
		t.Fatalf("phases = %+v", got.Phases)
	}
}

func TestFileTrackerRoundTrip(t *testing.T) {
	c := openTestCache(t)

	in := model.SessionReport{SessionID: "s2", FilePath: "/data/sessions/s2.jsonl"}
	if err := c.SaveReport(in, 99, 2048); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	tracked, err := c.GetTrackedFiles()
	if err != nil {
		t.Fatalf("GetTrackedFiles: %v", err)
	}
	fi, ok := tracked["/data/sessions/s2.jsonl"]
	if !ok {
		t.Fatal("file not tracked")
	}
	if fi.MtimeNs != 99 || fi.SizeBytes != 2048 {
		t.Errorf("tracked = %+v", fi)
	}
}

func TestSaveReport_ReplacesChildRows(t *testing.T) {
	c := openTestCache(t)

	in := model.SessionReport{
		SessionID: "s3",
		FilePath:  "/data/sessions/s3.jsonl",
		Tools: []model.ToolStat{
			{Name: "grep", Calls: 1, TotalSecs: 0.5},
		},
	}
	if err := c.SaveReport(in, 1, 1); err != nil {
		t.Fatalf("first SaveReport: %v", err)
	}

	in.Tools = []model.ToolStat{
		{Name: "bash", Calls: 2, TotalSecs: 4.0},
	}
	if err := c.SaveReport(in, 2, 2); err != nil {
		t.Fatalf("second SaveReport: %v", err)
	}

	reports, err := c.LoadAllReports()
	if err != nil {
		t.Fatalf("LoadAllReports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("loaded %d reports, want 1", len(reports))
	}
	if len(reports[0].Tools) != 1 || reports[0].Tools[0].Name != "bash" {
		t.Fatalf("tools = %+v, want only bash", reports[0].Tools)
	}
}

func TestDeleteReport(t *testing.T) {
	c := openTestCache(t)

	if err := c.SaveReport(model.SessionReport{SessionID: "gone", FilePath: "/x"}, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteReport("gone"); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	n, err := c.ReportCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("ReportCount = %d, want 0", n)
	}
}
