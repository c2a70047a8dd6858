package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/tui/components"
	"github.com/theirongolddev/pburn/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const (
	tabOverview = iota
	tabProjects
	tabCategories
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	s := a.stats
	warn := a.cfg.Budget.WarnPercent

	if s.Projects == 0 {
		return components.ContentCard("Portfolio",
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).
				Render("No projects found in "+a.opts.DataDir), cw)
	}

	pct, ok := s.PercentSpent.Float64()
	remainingColor := t.Healthy
	if s.TotalRemaining.IsNegative() {
		remainingColor = t.Over
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Total Budget", Value: cli.FormatCost(s.TotalBudget), Note: fmt.Sprintf("%d projects, %d active", s.Projects, s.ActiveProjects)},
		{Label: "Total Spent", Value: cli.FormatCost(s.TotalSpent), Note: cli.FormatRatio(s.PercentSpent) + " of budget",
			Color: t.Health(pct, ok, warn)},
		{Label: "Remaining", Value: cli.FormatCost(s.TotalRemaining), Color: remainingColor},
		{Label: "Burn Rate", Value: cli.FormatCost(s.DailyBurnRate) + "/day", Note: "projected " + cli.FormatCostShort(s.TotalProjected)},
	}, cw))
	b.WriteString("\n")

	overColor := t.Healthy
	if s.OverBudget > 0 {
		overColor = t.Over
	}
	projColor := t.Healthy
	if s.ProjectedOver > 0 {
		projColor = t.Warning
	}
	largest := "none"
	if s.LargestOverspend != nil {
		largest = cli.Truncate(s.LargestOverspend.Project.Title, 20)
	}
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Over Budget", Value: fmt.Sprintf("%d", s.OverBudget), Color: overColor},
		{Label: "Projected Over", Value: fmt.Sprintf("%d", s.ProjectedOver), Color: projColor},
		{Label: "Largest Overrun", Value: largest},
		{Label: "Invalid", Value: fmt.Sprintf("%d", s.InvalidProjects), Note: "excluded from totals"},
	}, cw))
	b.WriteString("\n")

	inner := components.CardInnerWidth(cw)
	b.WriteString(components.ContentCard("Portfolio Spend",
		components.BudgetBar(s.PercentSpent, warn, max(inner-10, 10)), cw))
	b.WriteString("\n")
	b.WriteString(a.renderAttentionCard(cw))
	return b.String()
}

// attentionReports returns valid reports that are over budget, projected
// over, or past the warning threshold, most overspent first.
func attentionReports(reports []model.ProjectReport, warnPercent float64) []model.ProjectReport {
	var out []model.ProjectReport
	for _, r := range reports {
		if !r.Valid() {
			continue
		}
		pct, ok := r.Metrics.PercentSpent.Float64()
		if r.Metrics.IsOverBudget || r.Metrics.IsProjectedOverBudget || (ok && pct >= warnPercent) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Metrics.Remaining.LessThan(out[j].Metrics.Remaining)
	})
	return out
}

func (a App) renderAttentionCard(cw int) string {
	t := theme.Active
	warn := a.cfg.Budget.WarnPercent
	attention := attentionReports(a.reports, warn)

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if len(attention) == 0 {
		return components.ContentCard("Needs Attention", muted.Render("All projects are on track."), cw)
	}

	inner := components.CardInnerWidth(cw)
	barW := 12
	nameW := max(inner-barW-8-22-3, 12)

	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	lines := make([]string, 0, len(attention))
	for _, r := range attention {
		m := r.Metrics
		outlook := "projected " + cli.FormatCostShort(m.ProjectedTotalSpend)
		outlookColor := t.Warning
		if m.IsOverBudget {
			outlook = "over by " + cli.FormatCostShort(m.Remaining.Neg())
			outlookColor = t.Over
		} else if !m.IsProjectedOverBudget {
			outlook = "near limit"
		}
		pct, ok := m.PercentSpent.Float64()
		lines = append(lines,
			row.Render(fmt.Sprintf("%-*s", nameW, cli.Truncate(r.Project.Title, nameW)))+
				space.Render(" ")+
				components.CompactBudgetBar(m.PercentSpent, warn, barW)+
				lipgloss.NewStyle().Foreground(t.Health(pct, ok, warn)).Background(t.Surface).
					Render(fmt.Sprintf(" %7s", cli.FormatRatio(m.PercentSpent)))+
				lipgloss.NewStyle().Foreground(outlookColor).Background(t.Surface).
					Render(fmt.Sprintf(" %-22s", outlook)))
	}
	return components.ContentCard(fmt.Sprintf("Needs Attention (%d)", len(attention)), strings.Join(lines, "\n"), cw)
}
