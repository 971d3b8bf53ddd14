package trajectory

import (
	"fmt"
	"testing"
	"time"

	"github.com/theirongolddev/flightrec/internal/config"
	"github.com/theirongolddev/flightrec/internal/hook"
)

var testBase = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestAnalyzer(window int) *Analyzer {
	return NewAnalyzer(config.TrajectoryConfig{WindowSize: window, InjectFrequency: 100}, DefaultCatalog())
}

func toolPost(name string, at time.Time, ok bool) hook.Event {
	ev := hook.Event{Type: hook.ToolPost, ToolName: name, Timestamp: at}
	if !ok {
		ev.Error = "exit status 1"
	}
	return ev
}

func TestDetectPhase_Exploration(t *testing.T) {
	a := newTestAnalyzer(10)

	for i, name := range []string{"glob", "grep", "read_file"} {
		a.HandleEvent(toolPost(name, testBase.Add(time.Duration(i)*time.Second), true))
	}

	phase, confidence := a.DetectPhase()
	if phase != "exploration" {
		t.Fatalf("phase = %q, want exploration", phase)
	}
	if confidence <= 0 || confidence > 1 {
		t.Fatalf("confidence = %.3f, want in (0, 1]", confidence)
	}
}

func TestDetectPhase_DebuggingErrorBonus(t *testing.T) {
	a := newTestAnalyzer(10)

	// Two failures inside the same second trip the error-context bonus.
	a.HandleEvent(toolPost("bash", testBase, false))
	a.HandleEvent(toolPost("bash", testBase.Add(500*time.Millisecond), false))

	phase, confidence := a.DetectPhase()
	if phase != "debugging" {
		t.Fatalf("phase = %q, want debugging", phase)
	}

	// bash matches several phases, so dominance stays below the
	// transition threshold; the detector holds its current phase.
	if confidence > transitionThreshold {
		t.Fatalf("confidence = %.3f, expected below transition threshold", confidence)
	}
	a.HandleEvent(hook.Event{Type: hook.ProviderPost, Timestamp: testBase.Add(time.Second)})
	if a.currentPhase != "exploration" {
		t.Fatalf("currentPhase = %q, want exploration retained", a.currentPhase)
	}
}

func TestDetectPhase_EmptyHistoryKeepsState(t *testing.T) {
	a := newTestAnalyzer(10)

	phase, confidence := a.DetectPhase()
	if phase != "exploration" || confidence != 0.5 {
		t.Fatalf("empty history -> (%q, %.2f), want (exploration, 0.50)", phase, confidence)
	}
}

func TestDetectPhase_ZeroScoreNeutralConfidence(t *testing.T) {
	a := newTestAnalyzer(10)

	// A tool name no indicator matches; low-activity bonus still applies
	// to planning, so pad past the sparse-window cutoff first.
	for i := 0; i < 3; i++ {
		a.HandleEvent(toolPost("teleport", testBase.Add(time.Duration(i)*time.Second), true))
	}

	phase, confidence := a.DetectPhase()
	if phase != "exploration" {
		t.Fatalf("phase = %q, want current phase retained", phase)
	}
	if confidence != 0.5 {
		t.Fatalf("confidence = %.3f, want neutral 0.5", confidence)
	}
}

func TestToolHistory_WindowBound(t *testing.T) {
	a := newTestAnalyzer(5)

	for i := 0; i < 12; i++ {
		a.HandleEvent(toolPost(fmt.Sprintf("tool_%d", i), testBase.Add(time.Duration(i)*time.Second), true))
	}

	if len(a.toolHistory) != 5 {
		t.Fatalf("toolHistory length = %d, want 5", len(a.toolHistory))
	}
	if a.toolHistory[0].tool != "tool_7" {
		t.Fatalf("oldest surviving record = %q, want tool_7", a.toolHistory[0].tool)
	}
	if a.toolHistory[4].tool != "tool_11" {
		t.Fatalf("newest record = %q, want tool_11", a.toolHistory[4].tool)
	}
}

func TestRecentErrors_PrunedToWindow(t *testing.T) {
	a := newTestAnalyzer(10)

	a.HandleEvent(toolPost("bash", testBase, false))
	a.HandleEvent(toolPost("bash", testBase.Add(2*time.Minute), false))

	if len(a.recentErrors) != 1 {
		t.Fatalf("recentErrors length = %d, want 1 (old error pruned)", len(a.recentErrors))
	}
	if !a.recentErrors[0].at.Equal(testBase.Add(2 * time.Minute)) {
		t.Fatal("wrong error survived pruning")
	}
}

func TestConfidenceRange(t *testing.T) {
	a := newTestAnalyzer(10)

	names := []string{"glob", "bash", "write_file", "grep", "read_file", "edit_file", "LSP_hover", "web_search"}
	for i, name := range names {
		a.HandleEvent(toolPost(name, testBase.Add(time.Duration(i)*time.Second), i%3 == 0))

		_, confidence := a.DetectPhase()
		if confidence < 0 || confidence > 1 {
			t.Fatalf("after %d events: confidence = %.3f out of range", i+1, confidence)
		}
	}
}

func TestPhaseTransition_RecordsHistory(t *testing.T) {
	a := newTestAnalyzer(10)

	for i := 0; i < 4; i++ {
		a.HandleEvent(toolPost("write_file", testBase.Add(time.Duration(i)*time.Second), true))
	}
	res := a.HandleEvent(hook.Event{Type: hook.ProviderPost, Timestamp: testBase.Add(10 * time.Second)})

	if res.UserMessage == "" || res.UserMessageLevel != hook.LevelInfo {
		t.Fatalf("expected transition announcement, got %+v", res)
	}
	if a.currentPhase != "implementation" {
		t.Fatalf("currentPhase = %q, want implementation", a.currentPhase)
	}
	if len(a.phaseHistory) != 1 {
		t.Fatalf("phaseHistory length = %d, want 1", len(a.phaseHistory))
	}
	rec := a.phaseHistory[0]
	if rec.Phase != "exploration" {
		t.Fatalf("completed phase = %q, want exploration", rec.Phase)
	}
	if rec.DurationSecs != 10 {
		t.Fatalf("completed phase duration = %.1fs, want 10.0", rec.DurationSecs)
	}
}

func TestTransitionSuppressesInjection(t *testing.T) {
	a := NewAnalyzer(config.TrajectoryConfig{WindowSize: 10, InjectFrequency: 1}, DefaultCatalog())

	for i := 0; i < 4; i++ {
		a.HandleEvent(toolPost("write_file", testBase.Add(time.Duration(i)*time.Second), true))
	}
	res := a.HandleEvent(hook.Event{Type: hook.ProviderPost, Timestamp: testBase.Add(5 * time.Second)})

	// Transition wins over the periodic injection for the same turn.
	if res.ContextInjection != "" {
		t.Fatal("transition turn also produced an injection")
	}
	if res.UserMessage == "" {
		t.Fatal("transition turn produced no announcement")
	}

	// Next turn with no phase change emits the injection instead.
	res = a.HandleEvent(hook.Event{Type: hook.ProviderPost, Timestamp: testBase.Add(6 * time.Second)})
	if res.ContextInjection == "" {
		t.Fatal("no injection on the following turn")
	}
	if !res.Ephemeral || !res.SuppressOutput || res.ContextInjectionRole != "system" {
		t.Fatalf("injection flags wrong: %+v", res)
	}
}

func TestPredict_LowConfidencePrependsCurrent(t *testing.T) {
	a := newTestAnalyzer(10)
	a.currentPhase = "implementation"
	a.phaseConfidence = 0.5

	predicted := a.predictLocked()
	if len(predicted) != 3 {
		t.Fatalf("predicted %d phases, want 3", len(predicted))
	}
	if predicted[0] != "implementation" {
		t.Fatalf("predicted[0] = %q, want current phase first", predicted[0])
	}
	if predicted[1] != "verification" || predicted[2] != "implementation" {
		t.Fatalf("predicted tail = %v", predicted[1:])
	}
}

func TestPredict_HighConfidenceUsesTable(t *testing.T) {
	a := newTestAnalyzer(10)
	a.currentPhase = "verification"
	a.phaseConfidence = 0.9

	predicted := a.predictLocked()
	if len(predicted) != 2 {
		t.Fatalf("predicted %d phases, want 2", len(predicted))
	}
	if predicted[0] != "debugging" || predicted[1] != "implementation" {
		t.Fatalf("predicted = %v", predicted)
	}
}

func TestCatalog_TransitionsCoverEveryPhase(t *testing.T) {
	c := DefaultCatalog()
	for _, def := range c.Phases {
		if _, ok := c.Transitions[def.Name]; !ok {
			t.Fatalf("phase %q has no transition entry", def.Name)
		}
	}
	if _, ok := c.Get(c.Initial); !ok {
		t.Fatalf("initial phase %q not in catalog", c.Initial)
	}
}
