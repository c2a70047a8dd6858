package components

import (
	"strings"

	"github.com/theirongolddev/pburn/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab is a single entry of the tab bar. Key is the shortcut letter, which
// is always the first letter of Name.
type Tab struct {
	Name string
	Key  string
}

// Tabs lists the dashboard tabs in display order.
var Tabs = []Tab{
	{Name: "Overview", Key: "o"},
	{Name: "Projects", Key: "p"},
	{Name: "Categories", Key: "c"},
}

// TabIndex returns the index of the tab bound to key, or -1.
func TabIndex(key string) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}

// TabVisualWidth returns the rendered width of a tab label. Active and
// inactive tabs have the same width.
func TabVisualWidth(tab Tab, _ bool) int {
	return lipgloss.Width(tab.Name) + 2
}

// RenderTabBar renders the tab bar with a trailing title on the right.
func RenderTabBar(activeIdx, width int, title string) string {
	t := theme.Active

	active := lipgloss.NewStyle().Foreground(t.Background).Background(t.Accent).Bold(true).Padding(0, 1)
	inactive := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Padding(0, 1)
	sep := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts[i] = active.Render(tab.Name)
		} else {
			parts[i] = inactive.Render(tab.Name)
		}
	}
	left := strings.Join(parts, sep)
	right := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true).Render(title + " ")

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + lipgloss.NewStyle().Background(t.Surface).Render(strings.Repeat(" ", gap)) + right
}
