package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/flightrec/internal/model"
)

// Aggregate computes summary statistics from a slice of session reports,
// filtered to sessions within the given time range.
func Aggregate(reports []model.SessionReport, since, until time.Time) model.SummaryStats {
	filtered := FilterByTime(reports, since, until)

	var stats model.SummaryStats
	activeDays := make(map[string]struct{})

	for _, r := range filtered {
		stats.TotalSessions++
		stats.TotalTurns += r.Turns
		stats.TotalDurationSecs += int64(r.ElapsedSecs())

		stats.InputTokens += r.InputTokens
		stats.OutputTokens += r.OutputTokens
		stats.EstimatedCost += r.EstimatedCost

		stats.SlowToolWarnings += r.SlowToolWarnings
		stats.CostWarnings += r.CostWarnings

		if !r.StartTime.IsZero() {
			day := r.StartTime.Local().Format("2006-01-02")
			activeDays[day] = struct{}{}
		}
	}

	stats.ActiveDays = len(activeDays)
	stats.TotalTokens = stats.InputTokens + stats.OutputTokens

	if stats.ActiveDays > 0 {
		days := float64(stats.ActiveDays)
		stats.CostPerDay = stats.EstimatedCost / days
		stats.TokensPerDay = int64(float64(stats.TotalTokens) / days)
		stats.SessionsPerDay = float64(stats.TotalSessions) / days
	}

	return stats
}

// AggregateModels computes per-model statistics from session reports.
func AggregateModels(reports []model.SessionReport, since, until time.Time) []model.ModelStats {
	filtered := FilterByTime(reports, since, until)

	modelMap := make(map[string]*model.ModelStats)
	totalTurns := 0

	for _, r := range filtered {
		for modelName, mu := range r.Models {
			ms, ok := modelMap[modelName]
			if !ok {
				ms = &model.ModelStats{Model: modelName}
				modelMap[modelName] = ms
			}
			ms.Turns += mu.Turns
			ms.InputTokens += mu.InputTokens
			ms.OutputTokens += mu.OutputTokens
			ms.EstimatedCost += mu.EstimatedCost
			totalTurns += mu.Turns
		}
	}

	// Compute share percentages and sort by cost descending
	models := make([]model.ModelStats, 0, len(modelMap))
	for _, ms := range modelMap {
		if totalTurns > 0 {
			ms.SharePercent = float64(ms.Turns) / float64(totalTurns) * 100
		}
		models = append(models, *ms)
	}
	sort.Slice(models, func(i, j int) bool {
		return models[i].EstimatedCost > models[j].EstimatedCost
	})

	return models
}

// AggregatePhases computes time-in-phase statistics from session reports.
func AggregatePhases(reports []model.SessionReport, since, until time.Time) []model.PhaseStats {
	filtered := FilterByTime(reports, since, until)

	phaseMap := make(map[string]*model.PhaseStats)
	var totalSecs float64

	for _, r := range filtered {
		for _, rec := range r.Phases {
			ps, ok := phaseMap[rec.Phase]
			if !ok {
				ps = &model.PhaseStats{Phase: rec.Phase}
				phaseMap[rec.Phase] = ps
			}
			ps.Visits++
			ps.TotalSecs += rec.DurationSecs
			totalSecs += rec.DurationSecs
		}
	}

	phases := make([]model.PhaseStats, 0, len(phaseMap))
	for _, ps := range phaseMap {
		if ps.Visits > 0 {
			ps.AvgSecs = ps.TotalSecs / float64(ps.Visits)
		}
		if totalSecs > 0 {
			ps.SharePercent = ps.TotalSecs / totalSecs * 100
		}
		phases = append(phases, *ps)
	}
	sort.Slice(phases, func(i, j int) bool {
		return phases[i].TotalSecs > phases[j].TotalSecs
	})

	return phases
}

// AggregateTools merges per-session tool timings into one ranking,
// sorted by total time descending.
func AggregateTools(reports []model.SessionReport, since, until time.Time) []model.ToolStat {
	filtered := FilterByTime(reports, since, until)

	toolMap := make(map[string]*model.ToolStat)

	for _, r := range filtered {
		for _, ts := range r.Tools {
			agg, ok := toolMap[ts.Name]
			if !ok {
				agg = &model.ToolStat{Name: ts.Name}
				toolMap[ts.Name] = agg
			}
			agg.Calls += ts.Calls
			agg.TotalSecs += ts.TotalSecs
		}
	}

	tools := make([]model.ToolStat, 0, len(toolMap))
	for _, agg := range toolMap {
		if agg.Calls > 0 {
			agg.AvgSecs = agg.TotalSecs / float64(agg.Calls)
		}
		tools = append(tools, *agg)
	}
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].TotalSecs > tools[j].TotalSecs
	})

	return tools
}

// AggregateDays computes per-day statistics from session reports.
func AggregateDays(reports []model.SessionReport, since, until time.Time) []model.DailyStats {
	filtered := FilterByTime(reports, since, until)

	dayMap := make(map[string]*model.DailyStats)

	for _, r := range filtered {
		if r.StartTime.IsZero() {
			continue
		}
		dayKey := r.StartTime.Local().Format("2006-01-02")
		ds, ok := dayMap[dayKey]
		if !ok {
			t, _ := time.ParseInLocation("2006-01-02", dayKey, time.Local)
			ds = &model.DailyStats{Date: t}
			dayMap[dayKey] = ds
		}

		ds.Sessions++
		ds.Turns += r.Turns
		ds.InputTokens += r.InputTokens
		ds.OutputTokens += r.OutputTokens
		ds.EstimatedCost += r.EstimatedCost
	}

	// Fill in every day in the range so the chart shows gaps as zeros
	if !since.IsZero() && !until.IsZero() {
		day := since.Local().Truncate(24 * time.Hour)
		end := until.Local().Truncate(24 * time.Hour)
		for !day.After(end) {
			dayKey := day.Format("2006-01-02")
			if _, ok := dayMap[dayKey]; !ok {
				dayMap[dayKey] = &model.DailyStats{Date: day}
			}
			day = day.AddDate(0, 0, 1)
		}
	}

	// Convert to sorted slice (most recent first)
	days := make([]model.DailyStats, 0, len(dayMap))
	for _, ds := range dayMap {
		days = append(days, *ds)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.After(days[j].Date)
	})

	return days
}

// FilterByTime returns reports whose start time falls within [since, until).
func FilterByTime(reports []model.SessionReport, since, until time.Time) []model.SessionReport {
	if since.IsZero() && until.IsZero() {
		return reports
	}

	var result []model.SessionReport
	for _, r := range reports {
		if r.StartTime.IsZero() {
			continue
		}
		if !since.IsZero() && r.StartTime.Before(since) {
			continue
		}
		if !until.IsZero() && !r.StartTime.Before(until) {
			continue
		}
		result = append(result, r)
	}
	return result
}

// FilterByModel returns reports that have at least one turn on the given model.
func FilterByModel(reports []model.SessionReport, modelFilter string) []model.SessionReport {
	if modelFilter == "" {
		return reports
	}
	var result []model.SessionReport
	for _, r := range reports {
		for m := range r.Models {
			if containsIgnoreCase(m, modelFilter) {
				result = append(result, r)
				break
			}
		}
	}
	return result
}

// FilterByPhase returns reports whose final phase matches the given name.
func FilterByPhase(reports []model.SessionReport, phase string) []model.SessionReport {
	if phase == "" {
		return reports
	}
	var result []model.SessionReport
	for _, r := range reports {
		if containsIgnoreCase(r.FinalPhase, phase) {
			result = append(result, r)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
