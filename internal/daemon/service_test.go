package daemon

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/flightrec/internal/config"
	"github.com/theirongolddev/flightrec/internal/hook"
)

func TestIngest_TracksCostAndPhase(t *testing.T) {
	s := New(Config{App: config.DefaultConfig()})

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.Ingest(hook.Event{Type: hook.SessionStart, SessionID: "s1", Timestamp: base})
	s.Ingest(hook.Event{
		Type: hook.ToolPost, SessionID: "s1", Timestamp: base.Add(2 * time.Second),
		ToolName: "grep", ToolUseID: "t1",
	})
	decisions := s.Ingest(hook.Event{
		Type: hook.ProviderPost, SessionID: "s1", Timestamp: base.Add(4 * time.Second),
		Model: "gpt-4o",
		Usage: hook.Usage{InputTokens: 1_000_000, OutputTokens: 500_000},
	})

	// $7.50 crosses the default $1 threshold
	if len(decisions) == 0 {
		t.Fatal("cost threshold crossing produced no decision")
	}

	status := s.snapshotStatus()
	if status.IngestCount != 3 {
		t.Errorf("IngestCount = %d, want 3", status.IngestCount)
	}
	if status.SessionCount != 1 {
		t.Errorf("SessionCount = %d, want 1", status.SessionCount)
	}
	if math.Abs(status.Active.EstimatedCostUSD-7.5) > 1e-9 {
		t.Errorf("EstimatedCostUSD = %.4f, want 7.5", status.Active.EstimatedCostUSD)
	}
	if status.Active.Turns != 1 {
		t.Errorf("Turns = %d, want 1", status.Active.Turns)
	}
	if status.Active.Phase != "exploration" {
		t.Errorf("Phase = %q, want exploration", status.Active.Phase)
	}
	if status.Active.CostWarnings != 1 {
		t.Errorf("CostWarnings = %d, want 1", status.Active.CostWarnings)
	}
}

func TestIngest_DefaultsSessionID(t *testing.T) {
	s := New(Config{App: config.DefaultConfig()})

	s.Ingest(hook.Event{Type: hook.SessionStart})

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions["live"]; !ok {
		t.Fatal("event without session id did not land in the live session")
	}
}

func TestIngest_RecordsSessionLog(t *testing.T) {
	dir := t.TempDir()
	s := New(Config{App: config.DefaultConfig(), RecordDir: dir})

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.Ingest(hook.Event{Type: hook.SessionStart, SessionID: "rec1", Timestamp: base})
	s.Ingest(hook.Event{Type: hook.SessionEnd, SessionID: "rec1", Timestamp: base.Add(time.Second)})

	data, err := os.ReadFile(filepath.Join(dir, "sessions", "rec1.jsonl"))
	if err != nil {
		t.Fatalf("reading recorded log: %v", err)
	}
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Fatalf("recorded %d lines, want 2", lines)
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{App: config.DefaultConfig(), EventsBuffer: 2})

	s.publishEvent(Event{Type: "decision"})
	s.publishEvent(Event{Type: "decision"})
	s.publishEvent(Event{Type: "decision"})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestSessionEndPublishesEvent(t *testing.T) {
	s := New(Config{App: config.DefaultConfig()})

	s.Ingest(hook.Event{Type: hook.SessionStart, SessionID: "s1"})
	s.Ingest(hook.Event{Type: hook.SessionEnd, SessionID: "s1"})

	s.mu.RLock()
	defer s.mu.RUnlock()

	found := false
	for _, ev := range s.events {
		if ev.Type == "session_end" && ev.SessionID == "s1" {
			found = true
		}
	}
	if !found {
		t.Fatal("session_end did not publish an event")
	}
}
