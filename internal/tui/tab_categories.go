package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/tui/components"
	"github.com/theirongolddev/pburn/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderCategoriesTab(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if len(a.categories) == 0 {
		return components.ContentCard("Spend by Category", muted.Render("No expenses recorded."), cw)
	}

	inner := components.CardInnerWidth(cw)
	bars := make([]components.Bar, len(a.categories))
	for i, c := range a.categories {
		bars[i] = components.Bar{
			Label: c.Category,
			Value: c.Amount.InexactFloat64(),
			Note:  fmt.Sprintf("%s %5.1f%%", cli.FormatCostShort(c.Amount), c.SharePercent),
		}
	}

	header := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	nameW := max(inner-8-14-8-3, 12)

	var table strings.Builder
	table.WriteString(header.Render(fmt.Sprintf("%-*s %8s %14s %8s", nameW, "Category", "Count", "Amount", "Share")))
	for _, c := range a.categories {
		table.WriteString("\n")
		table.WriteString(row.Render(fmt.Sprintf("%-*s %8s %14s %7.1f%%",
			nameW, cli.Truncate(c.Category, nameW), cli.FormatNumber(int64(c.Expenses)), cli.FormatCost(c.Amount), c.SharePercent)))
	}

	return components.ContentCard("Spend by Category", components.HorizontalBars(bars, inner), cw) + "\n" +
		components.ContentCard("Category Totals", table.String(), cw)
}
