package components

import (
	"fmt"

	"github.com/theirongolddev/flightrec/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar. source describes where the
// data came from ("daemon" or "replay"), dataAge how stale it is.
func RenderStatusBar(width int, source, dataAge string) string {
	t := theme.Active

	style := lipgloss.NewStyle().Foreground(t.TextMuted).Width(width)

	left := " [?]help  [q]uit"
	right := ""
	if source != "" {
		right = source
		if dataAge != "" {
			right += fmt.Sprintf(" · %s", dataAge)
		}
		right += " "
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	bar := left
	for i := 0; i < padding; i++ {
		bar += " "
	}
	bar += right

	return style.Render(bar)
}
