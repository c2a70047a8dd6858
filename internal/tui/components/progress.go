package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// LoadBar renders the fixture loading progress bar with a percentage.
func LoadBar(pct float64, width int) string {
	t := theme.Active
	pct = clamp01(pct)
	filled := int(pct * float64(width))

	fill := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	empty := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	label := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)

	return fill.Render(strings.Repeat("█", filled)) +
		empty.Render(strings.Repeat("░", width-filled)) +
		label.Render(fmt.Sprintf(" %.0f%%", pct*100))
}

// BudgetBar renders percent spent as a bar colored by budget health,
// followed by the percentage. Spend past 100% fills the bar completely.
func BudgetBar(r model.Ratio, warnPercent float64, width int) string {
	t := theme.Active
	pct, ok := r.Float64()
	color := t.Health(pct, ok, warnPercent)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(max(width, 4)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	label := "N/A"
	if ok {
		label = fmt.Sprintf("%.1f%%", pct)
	}
	return bar.ViewAs(clamp01(pct/100)) +
		lipgloss.NewStyle().Background(t.Surface).Render(" ") +
		lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true).Render(label)
}

// CompactBudgetBar renders a short bar sized for list rows.
func CompactBudgetBar(r model.Ratio, warnPercent float64, width int) string {
	t := theme.Active
	pct, ok := r.Float64()
	if !ok {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(strings.Repeat("·", width))
	}
	filled := int(clamp01(pct/100) * float64(width))
	fill := lipgloss.NewStyle().Foreground(t.Health(pct, ok, warnPercent)).Background(t.Surface)
	empty := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	return fill.Render(strings.Repeat("▰", filled)) + empty.Render(strings.Repeat("▱", width-filled))
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
