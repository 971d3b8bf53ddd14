package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/flightrec/internal/cli"
	"github.com/theirongolddev/flightrec/internal/tui/components"
	"github.com/theirongolddev/flightrec/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderOverviewTab(cw int) string {
	if a.client != nil {
		return a.renderLiveOverview(cw)
	}
	return a.renderReplayOverview(cw)
}

func (a App) renderLiveOverview(cw int) string {
	t := theme.Active
	var b strings.Builder

	if a.status == nil || a.status.Active.SessionID == "" {
		dim := lipgloss.NewStyle().Foreground(t.TextDim)
		b.WriteString("\n")
		b.WriteString(dim.Render("  Daemon is up; waiting for the first session event..."))
		return b.String()
	}

	snap := a.status.Active

	cards := []struct{ Label, Value, Detail string }{
		{"Cost", cli.FormatCost(snap.EstimatedCostUSD), fmt.Sprintf("%d cost warnings", snap.CostWarnings)},
		{"Tokens", cli.FormatTokens(snap.InputTokens + snap.OutputTokens),
			fmt.Sprintf("%s in / %s out", cli.FormatTokens(snap.InputTokens), cli.FormatTokens(snap.OutputTokens))},
		{"Turns", cli.FormatNumber(int64(snap.Turns)), fmt.Sprintf("%d injections", snap.Injections)},
		{"Slow tools", cli.FormatNumber(int64(snap.SlowToolWarnings)), ""},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Phase card with confidence bar and predicted path
	inner := components.CardInnerWidth(cw)
	barW := inner - 24
	if barW < 10 {
		barW = 10
	}
	var phase strings.Builder
	phase.WriteString(components.ConfidenceBar(snap.Phase, snap.PhaseConfidence, 16, barW))
	if len(snap.PredictedPath) > 0 {
		pathStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
		phase.WriteString("\n")
		phase.WriteString(pathStyle.Render("next: " + strings.Join(snap.PredictedPath, " -> ")))
	}
	b.WriteString(components.ContentCard(
		fmt.Sprintf("Workflow Phase · session %s", truncStr(snap.SessionID, 12)),
		phase.String(), cw))
	b.WriteString("\n")

	// Recent decisions from the event backlog
	if len(a.recent) > 0 {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange)
		infoStyle := lipgloss.NewStyle().Foreground(t.Blue)
		timeStyle := lipgloss.NewStyle().Foreground(t.TextDim)

		var lines []string
		start := len(a.recent) - 8
		if start < 0 {
			start = 0
		}
		for _, ev := range a.recent[start:] {
			msg := ev.Decision.UserMessage
			style := infoStyle
			if ev.Decision.UserMessageLevel == "warning" {
				style = warnStyle
			}
			if msg == "" {
				if ev.Decision.ContextInjection != "" {
					msg = "ephemeral context injection"
					style = timeStyle
				} else {
					msg = ev.Type
					style = timeStyle
				}
			}
			lines = append(lines,
				timeStyle.Render(ev.Timestamp.Format("15:04:05"))+" "+
					style.Render(truncStr(msg, inner-10)))
		}
		b.WriteString(components.ContentCard("Recent Decisions", strings.Join(lines, "\n"), cw))
	}

	return b.String()
}

func (a App) renderReplayOverview(cw int) string {
	t := theme.Active
	stats := a.stats
	var b strings.Builder

	if stats.TotalSessions == 0 {
		dim := lipgloss.NewStyle().Foreground(t.TextDim)
		return "\n" + dim.Render("  No session logs found. Point --data-dir at a directory with sessions/*.jsonl.")
	}

	cards := []struct{ Label, Value, Detail string }{
		{"Cost", cli.FormatCost(stats.EstimatedCost), cli.FormatCost(stats.CostPerDay) + "/day"},
		{"Tokens", cli.FormatTokens(stats.TotalTokens), cli.FormatTokens(stats.TokensPerDay) + "/day"},
		{"Sessions", cli.FormatNumber(int64(stats.TotalSessions)), fmt.Sprintf("%.1f/day", stats.SessionsPerDay)},
		{"Warnings", cli.FormatNumber(int64(stats.SlowToolWarnings + stats.CostWarnings)),
			fmt.Sprintf("%d slow / %d cost", stats.SlowToolWarnings, stats.CostWarnings)},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	if len(a.models) > 0 {
		headStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
		rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)

		var lines []string
		lines = append(lines, headStyle.Render(fmt.Sprintf("%-28s %8s %10s %10s %7s",
			"MODEL", "TURNS", "TOKENS", "COST", "SHARE")))
		for _, m := range a.models {
			lines = append(lines, rowStyle.Render(fmt.Sprintf("%-28s %8d %10s %10s %6.1f%%",
				truncStr(m.Model, 28), m.Turns,
				cli.FormatTokens(m.InputTokens+m.OutputTokens),
				cli.FormatCost(m.EstimatedCost), m.SharePercent)))
		}
		b.WriteString(components.ContentCard("Models", strings.Join(lines, "\n"), cw))
	}

	return b.String()
}

func (a App) renderPhasesTab(cw int) string {
	t := theme.Active
	var b strings.Builder

	// Live: show the current phase first
	if a.client != nil && a.status != nil && a.status.Active.SessionID != "" {
		snap := a.status.Active
		inner := components.CardInnerWidth(cw)
		barW := inner - 24
		if barW < 10 {
			barW = 10
		}
		b.WriteString(components.ContentCard("Current Phase",
			components.ConfidenceBar(snap.Phase, snap.PhaseConfidence, 16, barW), cw))
		b.WriteString("\n")
	}

	if len(a.phases) == 0 {
		dim := lipgloss.NewStyle().Foreground(t.TextDim)
		b.WriteString("\n")
		b.WriteString(dim.Render("  No phase history yet."))
		return b.String()
	}

	inner := components.CardInnerWidth(cw)
	barW := inner - 32
	if barW < 10 {
		barW = 10
	}

	var lines []string
	for _, p := range a.phases {
		lines = append(lines, components.ShareBar(p.Phase, p.SharePercent, 16, barW))
	}
	b.WriteString(components.ContentCard("Time in Phase", strings.Join(lines, "\n"), cw))
	b.WriteString("\n")

	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	var detail []string
	detail = append(detail, headStyle.Render(fmt.Sprintf("%-16s %8s %12s %12s",
		"PHASE", "VISITS", "TOTAL", "AVG")))
	for _, p := range a.phases {
		detail = append(detail, rowStyle.Render(fmt.Sprintf("%-16s %8d %12s %12s",
			p.Phase, p.Visits, cli.FormatSecs(p.TotalSecs), cli.FormatSecs(p.AvgSecs))))
	}
	b.WriteString(components.ContentCard("Phase Detail", strings.Join(detail, "\n"), cw))

	return b.String()
}

func (a App) renderToolsTab(cw int) string {
	t := theme.Active
	var b strings.Builder

	if len(a.tools) == 0 {
		dim := lipgloss.NewStyle().Foreground(t.TextDim)
		return "\n" + dim.Render("  No tool calls recorded yet.")
	}

	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	slowStyle := lipgloss.NewStyle().Foreground(t.Orange)

	speedThreshold := a.cfg.Tracker.SpeedThresholdSecs

	var lines []string
	lines = append(lines, headStyle.Render(fmt.Sprintf("%-24s %8s %10s %10s",
		"TOOL", "CALLS", "TOTAL", "AVG")))
	for _, ts := range a.tools {
		style := rowStyle
		if speedThreshold > 0 && ts.AvgSecs > speedThreshold {
			style = slowStyle
		}
		lines = append(lines, style.Render(fmt.Sprintf("%-24s %8d %10s %10s",
			truncStr(ts.Name, 24), ts.Calls,
			cli.FormatSecs(ts.TotalSecs), cli.FormatSecs(ts.AvgSecs))))
	}
	b.WriteString(components.ContentCard("Tool Timings", strings.Join(lines, "\n"), cw))

	return b.String()
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	row := func(label, value string) string {
		return labelStyle.Render(padRight(label, 24)) + valueStyle.Render(value)
	}

	cfg := a.cfg
	lines := []string{
		row("Model", cfg.Tracker.Model),
		row("Cost threshold", cli.FormatCost(cfg.Tracker.CostThresholdUSD)),
		row("Speed threshold", cli.FormatSecs(cfg.Tracker.SpeedThresholdSecs)),
		row("Metrics cadence", fmt.Sprintf("every %d turns", cfg.Tracker.InjectFrequency)),
		row("Phase window", fmt.Sprintf("%d tool calls", cfg.Trajectory.WindowSize)),
		row("Trajectory cadence", fmt.Sprintf("every %d turns", cfg.Trajectory.InjectFrequency)),
		row("Daemon address", cfg.Daemon.Addr),
		row("Theme", cfg.Appearance.Theme),
		"",
		dimStyle.Render("Run `flightrec setup` to change these."),
	}

	return components.ContentCard("Configuration", strings.Join(lines, "\n"), cw)
}
