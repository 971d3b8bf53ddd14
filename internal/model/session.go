// Package model defines domain types for flightrec reports and aggregates.
package model

import "time"

// ToolStat holds timing statistics for a single tool.
type ToolStat struct {
	Name      string
	Calls     int
	AvgSecs   float64
	TotalSecs float64
}

// ModelUsage tracks per-model token usage within a session.
type ModelUsage struct {
	Turns         int
	InputTokens   int64
	OutputTokens  int64
	EstimatedCost float64
}

// PhaseRecord is one completed stretch of a workflow phase.
type PhaseRecord struct {
	Phase        string
	DurationSecs float64
	StartedAt    time.Time
}

// TrajectoryReport holds the phase detector's view of a session.
type TrajectoryReport struct {
	CurrentPhase string
	Description  string
	Confidence   float64
	PhaseStart   time.Time
	InPhaseSecs  float64
	Predicted    []string
	History      []PhaseRecord
}

// SessionReport holds the full telemetry picture for a single session.
type SessionReport struct {
	SessionID string
	FilePath  string
	StartTime time.Time
	EndTime   time.Time

	Turns        int
	InputTokens  int64
	OutputTokens int64

	EstimatedCost float64
	Models        map[string]*ModelUsage

	Tools []ToolStat // sorted by tool name

	SlowToolWarnings int
	CostWarnings     int
	Injections       int

	FinalPhase      string
	PhaseConfidence float64
	Phases          []PhaseRecord
}

// TotalTokens returns the combined input and output token count.
func (r SessionReport) TotalTokens() int64 {
	return r.InputTokens + r.OutputTokens
}

// ElapsedSecs returns the wall-clock session length in seconds.
func (r SessionReport) ElapsedSecs() float64 {
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime).Seconds()
}
