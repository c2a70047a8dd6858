package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/pburn/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline renders values as a row of unicode blocks scaled to the peak.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		buf.WriteRune(blocks[min(max(idx, 0), len(blocks)-1)])
	}
	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(buf.String())
}

// Bar is one labeled value of a HorizontalBars chart.
type Bar struct {
	Label string
	Value float64
	Note  string // printed after the bar, e.g. a formatted amount
}

// HorizontalBars renders one bar per row, scaled to the largest value, with
// labels left-aligned in a shared column.
func HorizontalBars(bars []Bar, width int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	labelW, noteW, peak := 0, 0, 0.0
	for _, b := range bars {
		labelW = max(labelW, lipgloss.Width(b.Label))
		noteW = max(noteW, lipgloss.Width(b.Note))
		peak = max(peak, b.Value)
	}
	labelW = min(labelW, max(width/3, 8))
	if peak == 0 {
		peak = 1
	}
	barW := max(width-labelW-noteW-2, 4)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	noteStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	lines := make([]string, len(bars))
	for i, b := range bars {
		n := int(math.Round(b.Value / peak * float64(barW)))
		if b.Value > 0 && n == 0 {
			n = 1
		}
		barStyle := lipgloss.NewStyle().Foreground(t.ChartColor(i)).Background(t.Surface)
		lines[i] = labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(b.Label, labelW))) +
			space.Render(" ") +
			barStyle.Render(strings.Repeat("█", n)) +
			space.Render(strings.Repeat(" ", barW-n+1)) +
			noteStyle.Render(fmt.Sprintf("%*s", noteW, b.Note))
	}
	return strings.Join(lines, "\n")
}

// FormatAxisAmount abbreviates a currency amount for chart labels.
func FormatAxisAmount(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("$%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("$%.1fk", v/1e3)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
