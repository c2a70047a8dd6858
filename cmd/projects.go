package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagSearch     string
	flagCategories []string
	flagStatus     string
	flagSort       string
	flagDesc       bool
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects with budget health",
	RunE:  runProjects,
}

func init() {
	projectsCmd.Flags().StringVarP(&flagSearch, "search", "s", "", "Search title, description and category")
	projectsCmd.Flags().StringArrayVarP(&flagCategories, "category", "c", nil, "Filter by category (repeatable)")
	projectsCmd.Flags().StringVar(&flagStatus, "status", "all", "Filter by status: "+strings.Join(pipeline.StatusFilters(), ", "))
	projectsCmd.Flags().StringVar(&flagSort, "sort", "", "Sort by: newest, alphabetical, budget-high, budget-low, deadline, spent (default from config)")
	projectsCmd.Flags().BoolVar(&flagDesc, "desc", false, "Reverse the sort order")
	rootCmd.AddCommand(projectsCmd)
}

func runProjects(_ *cobra.Command, _ []string) error {
	if err := pipeline.ValidateStatus(flagStatus); err != nil {
		return err
	}
	sortName := flagSort
	if sortName == "" {
		sortName = appCfg.General.DefaultSort
	}
	key, err := pipeline.ParseSortKey(sortName)
	if err != nil {
		return err
	}

	reports, _, asOf, err := analyzeAll()
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("\n  No projects found.")
		return nil
	}

	selected := pipeline.SelectReports(reports, pipeline.Query{
		Search:     flagSearch,
		Categories: flagCategories,
		Status:     flagStatus,
	}, key, flagDesc)
	if len(selected) == 0 {
		fmt.Println("\n  No projects match the current filters.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PROJECTS  as of %s", cli.FormatDate(asOf))))
	fmt.Println()
	fmt.Print(renderReportTable("", selected, appCfg.Budget.WarnPercent))
	return nil
}

// renderReportTable renders one row per project report.
func renderReportTable(title string, reports []model.ProjectReport, warnPercent float64) string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		p := r.Project
		if !r.Valid() {
			rows = append(rows, []string{
				p.ID, cli.Truncate(p.Title, 24), cli.FormatStatus(p.Status),
				cli.FormatCostShort(p.Budget), cli.FormatCostShort(p.Spent),
				"-", "-", cli.Muted("invalid"),
			})
			continue
		}
		m := r.Metrics
		rows = append(rows, []string{
			p.ID,
			cli.Truncate(p.Title, 24),
			cli.FormatStatus(p.Status),
			cli.FormatCostShort(p.Budget),
			cli.FormatCostShort(p.Spent),
			cli.BudgetStyle(m.PercentSpent, warnPercent).Render(cli.FormatRatio(m.PercentSpent)),
			cli.FormatCostShort(m.BurnRate) + "/d",
			projectionLabel(m),
		})
	}

	return cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"ID", "Project", "Status", "Budget", "Spent", "Used", "Burn", "Outlook"},
		Rows:    rows,
	})
}

func projectionLabel(m model.BudgetMetrics) string {
	switch {
	case m.IsOverBudget:
		return cli.Warn("over by " + cli.FormatCostShort(m.Remaining.Neg()))
	case m.IsProjectedOverBudget:
		return cli.Warn("projected " + cli.FormatCostShort(m.ProjectedTotalSpend))
	default:
		return "on track"
	}
}

// sortReportsByRemaining orders reports by remaining budget, most overspent
// first.
func sortReportsByRemaining(reports []model.ProjectReport) {
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Metrics.Remaining.LessThan(reports[j].Metrics.Remaining)
	})
}
