package hook

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/theirongolddev/flightrec/internal/config"
	"github.com/theirongolddev/flightrec/internal/model"
)

// ReportFunc receives the final session report on session_end. How the host
// displays it is its own business.
type ReportFunc func(model.SessionReport)

// Observer is the cost/speed tracker: running cost and token accounting,
// per-tool timing aggregation, threshold alerting, and periodic metrics
// injection. One instance per session; all counters are monotone.
type Observer struct {
	mu sync.Mutex

	modelName       string
	costThreshold   float64
	speedThreshold  float64
	injectFrequency int
	pricing         *config.PricingTable
	reportFn        ReportFunc
	clock           func() time.Time

	sessionID         string
	totalCost         float64
	tokenUsage        Usage
	toolTimings       map[string][]float64
	inFlight          map[string]time.Time
	modelUsage        map[string]*model.ModelUsage
	sessionStart      time.Time
	lastSeen          time.Time
	turnCount         int
	lastInjectionTurn int
	slowWarnings      int
	costWarnings      int
	injections        int
}

// NewObserver builds a cost/speed tracker from tracker settings and a shared
// pricing table. Zero-valued settings get the documented defaults.
func NewObserver(cfg config.TrackerConfig, pricing *config.PricingTable, reportFn ReportFunc) *Observer {
	if pricing == nil {
		pricing = config.DefaultPricingTable()
	}
	if cfg.Model == "" {
		cfg.Model = pricing.DefaultModel
	}
	if cfg.CostThresholdUSD <= 0 {
		cfg.CostThresholdUSD = 1.0
	}
	if cfg.SpeedThresholdSecs <= 0 {
		cfg.SpeedThresholdSecs = 10.0
	}
	if cfg.InjectFrequency < 1 {
		cfg.InjectFrequency = 5
	}

	return &Observer{
		modelName:       cfg.Model,
		costThreshold:   cfg.CostThresholdUSD,
		speedThreshold:  cfg.SpeedThresholdSecs,
		injectFrequency: cfg.InjectFrequency,
		pricing:         pricing,
		reportFn:        reportFn,
		clock:           time.Now,
		toolTimings:     make(map[string][]float64),
		inFlight:        make(map[string]time.Time),
		modelUsage:      make(map[string]*model.ModelUsage),
	}
}

// SetClock replaces the time source. Test hook.
func (o *Observer) SetClock(clock func() time.Time) {
	o.mu.Lock()
	o.clock = clock
	o.mu.Unlock()
}

// HandleEvent routes one lifecycle event to its handler.
func (o *Observer) HandleEvent(ev Event) Result {
	switch ev.Type {
	case SessionStart:
		return o.onSessionStart(ev)
	case ToolPre:
		return o.onToolPre(ev)
	case ToolPost:
		return o.onToolPost(ev)
	case ProviderPost:
		return o.onProviderPost(ev)
	case SessionEnd:
		return o.onSessionEnd(ev)
	default:
		return Continue()
	}
}

// at resolves the effective event time: recorded timestamp if present,
// otherwise the live clock.
func (o *Observer) at(ev Event) time.Time {
	if !ev.Timestamp.IsZero() {
		return ev.Timestamp
	}
	return o.clock()
}

func (o *Observer) onSessionStart(ev Event) Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.at(ev)
	o.sessionStart = now
	o.lastSeen = now
	if ev.SessionID != "" {
		o.sessionID = ev.SessionID
	}
	return Continue()
}

func (o *Observer) onToolPre(ev Event) Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.at(ev)
	o.lastSeen = now
	if ev.ToolUseID != "" {
		o.inFlight[ev.ToolUseID] = now
	}
	return Continue()
}

func (o *Observer) onToolPost(ev Event) Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.at(ev)
	o.lastSeen = now

	start, ok := o.inFlight[ev.ToolUseID]
	if !ok || ev.ToolUseID == "" {
		// Unmatched completion: timing silently skipped.
		return Continue()
	}
	delete(o.inFlight, ev.ToolUseID)

	duration := now.Sub(start).Seconds()
	tool := ev.Tool()
	o.toolTimings[tool] = append(o.toolTimings[tool], duration)

	if duration > o.speedThreshold {
		o.slowWarnings++
		return Warn(fmt.Sprintf("slow tool: %s took %.1fs", tool, duration))
	}
	return Continue()
}

func (o *Observer) onProviderPost(ev Event) Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.at(ev)
	o.lastSeen = now
	o.turnCount++

	o.tokenUsage.InputTokens += ev.Usage.InputTokens
	o.tokenUsage.OutputTokens += ev.Usage.OutputTokens

	modelName := ev.Model
	if modelName == "" {
		modelName = o.modelName
	}
	turnCost := o.pricing.CalculateCost(modelName, ev.Usage.InputTokens, ev.Usage.OutputTokens)
	o.totalCost += turnCost

	mu, ok := o.modelUsage[modelName]
	if !ok {
		mu = &model.ModelUsage{}
		o.modelUsage[modelName] = mu
	}
	mu.Turns++
	mu.InputTokens += ev.Usage.InputTokens
	mu.OutputTokens += ev.Usage.OutputTokens
	mu.EstimatedCost += turnCost

	// Cost alert takes priority over the periodic injection; the threshold
	// ratchets to the next whole dollar so one band never alerts twice.
	if o.totalCost > o.costThreshold {
		o.costThreshold = math.Ceil(o.totalCost)
		o.costWarnings++
		return Warn(fmt.Sprintf("cost threshold exceeded: $%.4f", o.totalCost))
	}

	if o.turnCount-o.lastInjectionTurn >= o.injectFrequency {
		o.lastInjectionTurn = o.turnCount
		o.injections++
		return Inject(o.metricsInjection(now))
	}

	return Continue()
}

func (o *Observer) onSessionEnd(ev Event) Result {
	o.mu.Lock()
	o.lastSeen = o.at(ev)
	report := o.reportLocked()
	fn := o.reportFn
	o.mu.Unlock()

	if fn != nil {
		fn(report)
	}
	return Continue()
}

// metricsInjection renders the ephemeral awareness message. Caller holds the
// lock.
func (o *Observer) metricsInjection(now time.Time) string {
	elapsed := 0.0
	if !o.sessionStart.IsZero() {
		elapsed = now.Sub(o.sessionStart).Seconds()
	}

	var b strings.Builder
	b.WriteString("Session metrics (ephemeral, for your awareness)\n")
	fmt.Fprintf(&b, "├─ Cost: $%.4f\n", o.totalCost)
	fmt.Fprintf(&b, "├─ Tokens: %d (%d in, %d out)\n",
		o.tokenUsage.InputTokens+o.tokenUsage.OutputTokens,
		o.tokenUsage.InputTokens, o.tokenUsage.OutputTokens)
	fmt.Fprintf(&b, "├─ Time: %.0fs elapsed\n", elapsed)
	fmt.Fprintf(&b, "├─ Tools: %d types used, avg %.2fs per call\n",
		len(o.toolTimings), o.averageToolTime())
	fmt.Fprintf(&b, "└─ Turn: %d\n", o.turnCount)
	b.WriteString("\nThis is live awareness - metrics update automatically. Focus on your task.")
	return b.String()
}

// averageToolTime returns the mean duration across every recorded call.
// Caller holds the lock.
func (o *Observer) averageToolTime() float64 {
	var total float64
	var n int
	for _, times := range o.toolTimings {
		for _, t := range times {
			total += t
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// Report returns a snapshot of the session so far.
func (o *Observer) Report() model.SessionReport {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reportLocked()
}

func (o *Observer) reportLocked() model.SessionReport {
	report := model.SessionReport{
		SessionID:        o.sessionID,
		StartTime:        o.sessionStart,
		EndTime:          o.lastSeen,
		Turns:            o.turnCount,
		InputTokens:      o.tokenUsage.InputTokens,
		OutputTokens:     o.tokenUsage.OutputTokens,
		EstimatedCost:    o.totalCost,
		SlowToolWarnings: o.slowWarnings,
		CostWarnings:     o.costWarnings,
		Injections:       o.injections,
		Models:           make(map[string]*model.ModelUsage, len(o.modelUsage)),
	}

	for name, mu := range o.modelUsage {
		cp := *mu
		report.Models[name] = &cp
	}

	report.Tools = make([]model.ToolStat, 0, len(o.toolTimings))
	for tool, times := range o.toolTimings {
		var total float64
		for _, t := range times {
			total += t
		}
		report.Tools = append(report.Tools, model.ToolStat{
			Name:      tool,
			Calls:     len(times),
			AvgSecs:   total / float64(len(times)),
			TotalSecs: total,
		})
	}
	sort.Slice(report.Tools, func(i, j int) bool {
		return report.Tools[i].Name < report.Tools[j].Name
	})

	return report
}
