package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/pipeline"
	"github.com/theirongolddev/pburn/internal/tui/components"
	"github.com/theirongolddev/pburn/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// projectsState holds the projects tab state.
type projectsState struct {
	cursor int

	sortIdx   int
	reverse   bool
	statusIdx int // index into pipeline.StatusFilters()

	searching   bool
	searchInput textinput.Model
	query       string

	detail       bool // full-width detail instead of split view
	detailScroll int
}

func newProjectsState(defaultSort string) projectsState {
	ps := projectsState{}
	if key, err := pipeline.ParseSortKey(defaultSort); err == nil {
		for i, k := range pipeline.SortKeys {
			if k == key {
				ps.sortIdx = i
			}
		}
	}
	return ps
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "title, description or category"
	ti.Prompt = "/ "
	ti.CharLimit = 80
	ti.Width = 40
	return ti
}

func (ps *projectsState) sortKey() pipeline.SortKey {
	return pipeline.SortKeys[ps.sortIdx%len(pipeline.SortKeys)]
}

func (ps *projectsState) status() string {
	filters := pipeline.StatusFilters()
	return filters[ps.statusIdx%len(filters)]
}

func (ps *projectsState) move(delta, n int) {
	ps.cursor += delta
	ps.clamp(n)
	ps.detailScroll = 0
}

func (ps *projectsState) clamp(n int) {
	ps.cursor = max(min(ps.cursor, n-1), 0)
}

// visibleReports applies the tab's search, status filter and sort.
func (a App) visibleReports() []model.ProjectReport {
	return pipeline.SelectReports(a.reports, pipeline.Query{
		Search: a.proj.query,
		Status: a.proj.status(),
	}, a.proj.sortKey(), a.proj.reverse)
}

// updateProjectsKey handles list keys; handled is false for keys the tab
// does not own.
func (a App) updateProjectsKey(key string) (App, tea.Cmd, bool) {
	n := len(a.visibleReports())
	ps := &a.proj

	switch key {
	case "/":
		ps.searching = true
		ps.searchInput = newSearchInput()
		ps.searchInput.SetValue(ps.query)
		cmd := ps.searchInput.Focus()
		return a, cmd, true
	case "j", "down":
		ps.move(1, n)
	case "k", "up":
		ps.move(-1, n)
	case "g":
		ps.move(-n, n)
	case "G":
		ps.move(n, n)
	case "enter":
		ps.detail = !ps.detail
		ps.detailScroll = 0
	case "esc":
		switch {
		case ps.detail:
			ps.detail = false
		case ps.query != "":
			ps.query = ""
			ps.cursor = 0
		}
	case "s":
		ps.sortIdx = (ps.sortIdx + 1) % len(pipeline.SortKeys)
	case "S":
		ps.reverse = !ps.reverse
	case "f":
		ps.statusIdx = (ps.statusIdx + 1) % len(pipeline.StatusFilters())
		ps.cursor = 0
	case "J":
		ps.detailScroll++
	case "K":
		ps.detailScroll = max(ps.detailScroll-1, 0)
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) updateProjectSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ps := &a.proj
	switch msg.String() {
	case "enter":
		ps.query = strings.TrimSpace(ps.searchInput.Value())
		ps.searching = false
		ps.cursor, ps.detailScroll = 0, 0
		return a, nil
	case "esc":
		ps.searching = false
		return a, nil
	}
	var cmd tea.Cmd
	ps.searchInput, cmd = ps.searchInput.Update(msg)
	return a, cmd
}

func (a App) renderProjectsTab(cw, h int) string {
	t := theme.Active
	visible := a.visibleReports()

	var header string
	if a.proj.searching {
		header = a.proj.searchInput.View()
	} else {
		header = a.filterSummary(len(visible))
	}
	header = lipgloss.NewStyle().Background(t.Background).Width(cw).Render(header)

	h = max(h-lipgloss.Height(header), minContentHeight)
	if len(visible) == 0 {
		return header + "\n" + components.ContentCard("Projects",
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No projects match the current filters."), cw)
	}

	selected := visible[min(a.proj.cursor, len(visible)-1)]
	if a.proj.detail {
		return header + "\n" + a.renderProjectDetail(selected, cw, h)
	}
	if a.isCompactLayout() {
		return header + "\n" + a.renderProjectList(visible, cw, h)
	}

	leftW := max(cw*2/5, 40)
	left := a.renderProjectList(visible, leftW, h)
	right := a.renderProjectDetail(selected, cw-leftW, h)
	return header + "\n" + components.CardRow([]string{left, right})
}

func (a App) filterSummary(n int) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Background)
	value := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Background).Bold(true)

	dir := "↓"
	if a.proj.reverse {
		dir = "↑"
	}
	parts := []string{
		label.Render(" sort ") + value.Render(string(a.proj.sortKey())+dir),
		label.Render(" status ") + value.Render(a.proj.status()),
	}
	if a.proj.query != "" {
		parts = append(parts, label.Render(" search ")+value.Render(a.proj.query))
	}
	parts = append(parts, label.Render(fmt.Sprintf(" %d of %d", n, len(a.reports))))
	return strings.Join(parts, label.Render(" │"))
}

func (a App) renderProjectList(reports []model.ProjectReport, cw, h int) string {
	t := theme.Active
	warn := a.cfg.Budget.WarnPercent
	inner := components.CardInnerWidth(cw)

	rows := max(h-4, 3) // border, title, header
	offset := max(a.proj.cursor-rows+1, 0)

	barW := 8
	pctW := 7
	nameW := max(inner-barW-pctW-2, 10)

	header := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true).
		Render(fmt.Sprintf("%-*s %*s %s", nameW, "Project", pctW, "Used", strings.Repeat(" ", barW)))

	lines := []string{header}
	for i := offset; i < len(reports) && i < offset+rows; i++ {
		r := reports[i]
		bg := t.Surface
		if i == a.proj.cursor {
			bg = t.SurfaceHover
		}
		name := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(bg).Bold(i == a.proj.cursor).
			Render(fmt.Sprintf("%-*s", nameW, cli.Truncate(r.Project.Title, nameW)))
		space := lipgloss.NewStyle().Background(bg).Render(" ")

		if !r.Valid() {
			lines = append(lines, name+space+
				lipgloss.NewStyle().Foreground(t.TextDim).Background(bg).
					Render(fmt.Sprintf("%*s %-*s", pctW, "-", barW, "invalid")))
			continue
		}
		pct, ok := r.Metrics.PercentSpent.Float64()
		lines = append(lines, name+space+
			lipgloss.NewStyle().Foreground(t.Health(pct, ok, warn)).Background(bg).
				Render(fmt.Sprintf("%*s", pctW, cli.FormatRatio(r.Metrics.PercentSpent)))+
			space+components.CompactBudgetBar(r.Metrics.PercentSpent, warn, barW))
	}
	return components.ContentCard(fmt.Sprintf("Projects (%d)", len(reports)), strings.Join(lines, "\n"), cw)
}

func (a App) renderProjectDetail(r model.ProjectReport, cw, h int) string {
	t := theme.Active
	p := r.Project
	warn := a.cfg.Budget.WarnPercent
	inner := components.CardInnerWidth(cw)

	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	alert := lipgloss.NewStyle().Foreground(t.Over).Background(t.Surface).Bold(true)
	caution := lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface).Bold(true)
	section := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	kv := func(k, v string) string {
		return label.Render(fmt.Sprintf("%-18s", k)) + value.Render(v)
	}

	lines := []string{
		kv("Status", cli.FormatStatus(p.Status)),
	}
	if p.Client != "" {
		lines = append(lines, kv("Client", p.Client))
	}
	if p.Category != "" {
		lines = append(lines, kv("Category", p.Category))
	}
	lines = append(lines, kv("Window", cli.FormatDate(p.StartDate)+" - "+cli.FormatDate(p.EndDate)))
	if p.Description != "" {
		lines = append(lines, label.Render(cli.Truncate(p.Description, inner)))
	}
	lines = append(lines, "")

	if !r.Valid() {
		lines = append(lines, alert.Render("Metrics unavailable"), label.Render(cli.Truncate(r.Err.Error(), inner)))
		return components.ContentCard(p.Title, strings.Join(lines, "\n"), cw)
	}

	m := r.Metrics
	lines = append(lines,
		components.BudgetBar(m.PercentSpent, warn, max(inner-10, 10)),
		"",
		kv("Budget", cli.FormatCost(p.Budget)),
		kv("Spent", cli.FormatCost(p.Spent)),
		kv("Remaining", cli.FormatRemaining(m.Remaining)),
		kv("Days Elapsed", cli.FormatDays(m.DaysElapsed)),
		kv("Burn Rate", cli.FormatCost(m.BurnRate)+"/day"),
		kv("Window", cli.FormatWindow(m.DaysRemainingInWindow)),
		kv("Projected Total", cli.FormatCost(m.ProjectedTotalSpend)),
		kv("Funds Run Out", cli.FormatExhaustion(m)),
	)
	switch {
	case m.IsOverBudget:
		lines = append(lines, "", alert.Render("Over budget by "+cli.FormatCost(m.Remaining.Neg())))
	case m.IsProjectedOverBudget:
		lines = append(lines, "", caution.Render("Projected to exceed budget by the end date"))
	}

	if len(p.Expenses) > 0 {
		limit := max(a.cfg.General.ExpenseLimit, 1)
		lines = append(lines, "", section.Render(fmt.Sprintf("Recent expenses (%d total)", len(p.Expenses))))
		descW := max(inner-14-12-2, 8)
		for _, e := range pipeline.RecentExpenses(p.Expenses, limit) {
			desc := e.Description
			if e.Manual {
				desc += " *"
			}
			lines = append(lines, label.Render(fmt.Sprintf("%-12s ", cli.FormatDate(e.Date)))+
				value.Render(fmt.Sprintf("%-*s %14s", descW, cli.Truncate(desc, descW), cli.FormatCost(e.Amount))))
		}
	}

	// J/K scroll the detail body
	rows := max(h-3, 3)
	scroll := min(a.proj.detailScroll, max(len(lines)-rows, 0))
	lines = lines[scroll:]
	return components.ContentCard(cli.Truncate(p.Title, inner), strings.Join(lines, "\n"), cw)
}
