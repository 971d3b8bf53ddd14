package model

import "time"

// SummaryStats holds the top-level aggregate across all sessions.
type SummaryStats struct {
	TotalSessions     int
	TotalTurns        int
	TotalDurationSecs int64
	ActiveDays        int

	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64

	EstimatedCost float64

	SlowToolWarnings int
	CostWarnings     int

	CostPerDay     float64
	TokensPerDay   int64
	SessionsPerDay float64
}

// ModelStats holds aggregated metrics for a single model.
type ModelStats struct {
	Model         string
	Turns         int
	InputTokens   int64
	OutputTokens  int64
	EstimatedCost float64
	SharePercent  float64
}

// PhaseStats holds aggregated time spent in one workflow phase.
type PhaseStats struct {
	Phase        string
	Visits       int
	TotalSecs    float64
	AvgSecs      float64
	SharePercent float64
}

// DailyStats holds metrics for a single calendar day.
type DailyStats struct {
	Date          time.Time
	Sessions      int
	Turns         int
	InputTokens   int64
	OutputTokens  int64
	EstimatedCost float64
}
