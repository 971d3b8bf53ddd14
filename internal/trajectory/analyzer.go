package trajectory

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/theirongolddev/flightrec/internal/config"
	"github.com/theirongolddev/flightrec/internal/hook"
	"github.com/theirongolddev/flightrec/internal/model"
)

// Errors further back than this no longer count toward the debugging signal.
const errorWindow = 60 * time.Second

// Transitions below this confidence are rejected; predictions below
// predictStayThreshold assume the agent may stay in its current phase.
const (
	transitionThreshold  = 0.6
	predictStayThreshold = 0.7
)

type toolRecord struct {
	tool    string
	at      time.Time
	success bool
}

// Analyzer is the phase/trajectory detector: a sliding-window heuristic
// classifier over recent tool outcomes. One instance per session.
type Analyzer struct {
	mu sync.Mutex

	catalog         *Catalog
	windowSize      int
	injectFrequency int
	clock           func() time.Time

	toolHistory       []toolRecord // bounded to windowSize, oldest evicted
	recentErrors      []toolRecord
	currentPhase      string
	phaseConfidence   float64
	phaseStart        time.Time
	phaseHistory      []model.PhaseRecord
	turnCount         int
	lastInjectionTurn int
}

// NewAnalyzer builds a phase detector from trajectory settings and a shared
// phase catalog. Zero-valued settings get the documented defaults.
func NewAnalyzer(cfg config.TrajectoryConfig, catalog *Catalog) *Analyzer {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if cfg.WindowSize < 1 {
		cfg.WindowSize = 10
	}
	if cfg.InjectFrequency < 1 {
		cfg.InjectFrequency = 3
	}

	return &Analyzer{
		catalog:         catalog,
		windowSize:      cfg.WindowSize,
		injectFrequency: cfg.InjectFrequency,
		clock:           time.Now,
		currentPhase:    catalog.Initial,
		phaseConfidence: 0.5,
	}
}

// SetClock replaces the time source. Test hook.
func (a *Analyzer) SetClock(clock func() time.Time) {
	a.mu.Lock()
	a.clock = clock
	a.mu.Unlock()
}

// HandleEvent routes one lifecycle event to its handler. The analyzer only
// consumes tool_post and provider_post.
func (a *Analyzer) HandleEvent(ev hook.Event) hook.Result {
	switch ev.Type {
	case hook.ToolPost:
		return a.onToolPost(ev)
	case hook.ProviderPost:
		return a.onProviderPost(ev)
	default:
		return hook.Continue()
	}
}

func (a *Analyzer) at(ev hook.Event) time.Time {
	if !ev.Timestamp.IsZero() {
		return ev.Timestamp
	}
	return a.clock()
}

func (a *Analyzer) onToolPost(ev hook.Event) hook.Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.at(ev)
	if a.phaseStart.IsZero() {
		a.phaseStart = now
	}

	rec := toolRecord{tool: ev.Tool(), at: now, success: ev.Succeeded()}
	a.toolHistory = append(a.toolHistory, rec)
	if len(a.toolHistory) > a.windowSize {
		a.toolHistory = a.toolHistory[len(a.toolHistory)-a.windowSize:]
	}

	if !rec.success {
		a.recentErrors = append(a.recentErrors, rec)
		cutoff := now.Add(-errorWindow)
		kept := a.recentErrors[:0]
		for _, e := range a.recentErrors {
			if e.at.After(cutoff) {
				kept = append(kept, e)
			}
		}
		a.recentErrors = kept
	}

	return hook.Continue()
}

func (a *Analyzer) onProviderPost(ev hook.Event) hook.Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.at(ev)
	if a.phaseStart.IsZero() {
		a.phaseStart = now
	}
	a.turnCount++

	newPhase, confidence := a.detectPhaseLocked()

	if newPhase != a.currentPhase && confidence > transitionThreshold {
		a.transitionLocked(newPhase, confidence, now)
		def, _ := a.catalog.Get(newPhase)
		return hook.Info(fmt.Sprintf("phase: %s - %s", newPhase, def.Description))
	}

	if a.turnCount-a.lastInjectionTurn >= a.injectFrequency {
		a.lastInjectionTurn = a.turnCount
		return hook.Inject(a.trajectoryInjection(now))
	}

	return hook.Continue()
}

// DetectPhase runs one classification pass and returns the top phase and
// its confidence without mutating state.
func (a *Analyzer) DetectPhase() (string, float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.detectPhaseLocked()
}

// detectPhaseLocked scores every phase in catalog order against the recent
// tool window. Caller holds the lock.
func (a *Analyzer) detectPhaseLocked() (string, float64) {
	if len(a.toolHistory) == 0 {
		return a.currentPhase, a.phaseConfidence
	}

	var best string
	var bestScore, totalScore float64

	for _, def := range a.catalog.Phases {
		var score float64

		for _, rec := range a.toolHistory {
			lower := strings.ToLower(rec.tool)
			for indicator, weight := range def.Weights {
				if strings.Contains(lower, strings.ToLower(indicator)) {
					score += float64(weight)
				}
			}
		}

		if def.LowActivity && len(a.toolHistory) < 3 {
			score += lowActivityBonus
		}
		if def.ErrorContext && len(a.recentErrors) >= 2 {
			score += errorContextBonus
		}

		totalScore += score
		// Strict > keeps the first phase in catalog order on ties.
		if score > bestScore {
			bestScore = score
			best = def.Name
		}
	}

	if bestScore == 0 {
		return a.currentPhase, 0.5
	}
	return best, bestScore / totalScore
}

// transitionLocked records the completed phase and enters the new one.
// Caller holds the lock.
func (a *Analyzer) transitionLocked(newPhase string, confidence float64, now time.Time) {
	a.phaseHistory = append(a.phaseHistory, model.PhaseRecord{
		Phase:        a.currentPhase,
		DurationSecs: now.Sub(a.phaseStart).Seconds(),
		StartedAt:    a.phaseStart,
	})

	a.currentPhase = newPhase
	a.phaseConfidence = confidence
	a.phaseStart = now
}

// predictLocked returns up to 3 likely next phases. Below the stay
// threshold the current phase leads the list. Caller holds the lock.
func (a *Analyzer) predictLocked() []string {
	next := a.catalog.Transitions[a.currentPhase]

	if a.phaseConfidence < predictStayThreshold {
		out := []string{a.currentPhase}
		if len(next) > 2 {
			next = next[:2]
		}
		return append(out, next...)
	}

	if len(next) > 3 {
		next = next[:3]
	}
	out := make([]string, len(next))
	copy(out, next)
	return out
}

// trajectoryInjection renders the ephemeral awareness message. Caller holds
// the lock.
func (a *Analyzer) trajectoryInjection(now time.Time) string {
	def, _ := a.catalog.Get(a.currentPhase)
	predicted := a.predictLocked()

	// Path is the current phase plus up to 2 predicted next hops.
	path := []string{a.currentPhase}
	if len(predicted) > 2 {
		predicted = predicted[:2]
	}
	path = append(path, predicted...)

	recent := make([]string, 0, 3)
	start := len(a.toolHistory) - 3
	if start < 0 {
		start = 0
	}
	for _, rec := range a.toolHistory[start:] {
		recent = append(recent, rec.tool)
	}
	tools := "none"
	if len(recent) > 0 {
		tools = strings.Join(recent, ", ")
	}

	var b strings.Builder
	b.WriteString("Trajectory awareness (ephemeral)\n")
	fmt.Fprintf(&b, "├─ Phase: %s (%s)\n", a.currentPhase, def.Description)
	fmt.Fprintf(&b, "├─ Confidence: %.0f%%\n", a.phaseConfidence*100)
	fmt.Fprintf(&b, "├─ Duration: %.0fs in this phase\n", now.Sub(a.phaseStart).Seconds())
	fmt.Fprintf(&b, "├─ Recent tools: %s\n", tools)
	fmt.Fprintf(&b, "└─ Predicted path: %s\n", strings.Join(path, " -> "))
	b.WriteString("\nThis is mission control - you're on track. Continue your current work.")
	return b.String()
}

// Report returns a snapshot of the detector's state.
func (a *Analyzer) Report() model.TrajectoryReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	def, _ := a.catalog.Get(a.currentPhase)

	history := make([]model.PhaseRecord, len(a.phaseHistory))
	copy(history, a.phaseHistory)

	inPhase := 0.0
	if !a.phaseStart.IsZero() {
		ref := a.clock()
		if n := len(a.toolHistory); n > 0 && a.toolHistory[n-1].at.After(a.phaseStart) {
			ref = a.toolHistory[n-1].at
		}
		inPhase = ref.Sub(a.phaseStart).Seconds()
	}

	return model.TrajectoryReport{
		CurrentPhase: a.currentPhase,
		Description:  def.Description,
		Confidence:   a.phaseConfidence,
		PhaseStart:   a.phaseStart,
		InPhaseSecs:  inPhase,
		Predicted:    a.predictLocked(),
		History:      history,
	}
}
