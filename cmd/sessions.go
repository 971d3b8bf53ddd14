package cmd

import (
	"fmt"
	"sort"

	"github.com/theirongolddev/flightrec/internal/cli"
	"github.com/theirongolddev/flightrec/internal/pipeline"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Session list with details",
	RunE:  runSessions,
}

var sessionsLimit int

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "l", 20, "Number of sessions to show")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}
	if len(result.Reports) == 0 {
		fmt.Println("\n  No session logs found.")
		return nil
	}

	filtered, since, until := applyFilters(result.Reports)
	reports := pipeline.FilterByTime(filtered, since, until)

	if len(reports) == 0 {
		fmt.Println("\n  No sessions in the selected time range.")
		return nil
	}

	// Most recent first
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartTime.After(reports[j].StartTime)
	})

	if sessionsLimit > 0 && len(reports) > sessionsLimit {
		reports = reports[:sessionsLimit]
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SESSIONS  Last %dd (showing %d)", flagDays, len(reports))))
	fmt.Println()

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		startStr := ""
		if !r.StartTime.IsZero() {
			startStr = r.StartTime.Local().Format("Jan 02 15:04")
		}

		rows = append(rows, []string{
			startStr,
			truncate(r.SessionID, 14),
			cli.FormatDuration(int64(r.ElapsedSecs())),
			cli.FormatNumber(int64(r.Turns)),
			cli.FormatTokens(r.TotalTokens()),
			cli.FormatCost(r.EstimatedCost),
			r.FinalPhase,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Start", "Session", "Duration", "Turns", "Tokens", "Cost", "Phase"},
		Rows:    rows,
	}))

	return nil
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
