// Package pipeline orchestrates event dispatch, session replay, caching,
// and metric aggregation.
package pipeline

import (
	"github.com/theirongolddev/flightrec/internal/config"
	"github.com/theirongolddev/flightrec/internal/hook"
	"github.com/theirongolddev/flightrec/internal/model"
	"github.com/theirongolddev/flightrec/internal/trajectory"
)

// Dispatcher fans each lifecycle event out to the cost observer and the
// phase analyzer and collects their decisions. Both handlers see every
// event in order; a panic in one never stops the other.
type Dispatcher struct {
	observer *hook.Observer
	analyzer *trajectory.Analyzer
	handlers []hook.Handler
}

// NewDispatcher wires an observer and analyzer from config. reportFn, if
// non-nil, receives the cost report when a session_end event arrives.
func NewDispatcher(cfg config.Config, pricing *config.PricingTable, reportFn hook.ReportFunc) *Dispatcher {
	obs := hook.NewObserver(cfg.Tracker, pricing, reportFn)
	ana := trajectory.NewAnalyzer(cfg.Trajectory, trajectory.DefaultCatalog())
	return &Dispatcher{
		observer: obs,
		analyzer: ana,
		handlers: []hook.Handler{hook.Safe(obs), hook.Safe(ana)},
	}
}

// Dispatch routes one event through every handler and returns the non-empty
// decisions in handler order.
func (d *Dispatcher) Dispatch(ev hook.Event) []hook.Result {
	var decisions []hook.Result
	for _, h := range d.handlers {
		res := h.HandleEvent(ev)
		if res.UserMessage != "" || res.ContextInjection != "" {
			decisions = append(decisions, res)
		}
	}
	return decisions
}

// Snapshot merges the observer's cost report with the analyzer's phase
// state into a single session report.
func (d *Dispatcher) Snapshot() model.SessionReport {
	report := d.observer.Report()
	traj := d.analyzer.Report()

	report.FinalPhase = traj.CurrentPhase
	report.PhaseConfidence = traj.Confidence
	report.Phases = traj.History
	if traj.CurrentPhase != "" && !traj.PhaseStart.IsZero() {
		report.Phases = append(report.Phases, model.PhaseRecord{
			Phase:        traj.CurrentPhase,
			DurationSecs: traj.InPhaseSecs,
			StartedAt:    traj.PhaseStart,
		})
	}

	return report
}

// Trajectory returns the analyzer's current view of the session.
func (d *Dispatcher) Trajectory() model.TrajectoryReport {
	return d.analyzer.Report()
}
