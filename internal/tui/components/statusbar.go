package components

import (
	"strings"

	"github.com/theirongolddev/pburn/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom bar: key hints on the left, data
// state on the right.
func RenderStatusBar(width int, hints, state string, refreshing bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if refreshing {
		state = "refreshing… " + state
	}
	left := style.Render(" " + hints)
	right := style.Render(state + " ")

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + style.Render(strings.Repeat(" ", gap)) + right
}
