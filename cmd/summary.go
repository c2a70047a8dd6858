package cmd

import (
	"fmt"

	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Portfolio budget summary",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	reports, _, asOf, err := analyzeAll()
	if err != nil {
		return err
	}

	if len(reports) == 0 {
		fmt.Println("\n  No projects found.")
		fmt.Printf("  Add YAML fixtures under %s, then come back!\n", dataDir())
		return nil
	}

	stats := pipeline.Summarize(reports)
	warn := appCfg.Budget.WarnPercent

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PORTFOLIO  as of %s", cli.FormatDate(asOf))))
	fmt.Println()

	rows := [][]string{
		{"Projects", fmt.Sprintf("%d (%d active)", stats.Projects, stats.ActiveProjects)},
		{"Expenses", cli.FormatNumber(int64(stats.TotalExpenses))},
		cli.Separator,
		{"Total Budget", cli.FormatCost(stats.TotalBudget)},
		{"Total Spent", cli.FormatCost(stats.TotalSpent)},
		{"Remaining", cli.FormatRemaining(stats.TotalRemaining)},
		{"Spent", cli.RenderBudgetBar(stats.PercentSpent, warn, 20)},
		cli.Separator,
		{"Burn Rate", cli.FormatCost(stats.DailyBurnRate) + "/day"},
		{"Projected Total", cli.FormatCost(stats.TotalProjected)},
		{"Over Budget", fmt.Sprintf("%d", stats.OverBudget)},
		{"Projected Over", fmt.Sprintf("%d", stats.ProjectedOver)},
	}
	if stats.LargestOverspend != nil {
		lo := stats.LargestOverspend
		rows = append(rows, []string{"Largest Overrun",
			fmt.Sprintf("%s (%s)", cli.Truncate(lo.Project.Title, 24), cli.FormatCost(lo.Metrics.Remaining.Neg()))})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if attention := needsAttention(reports, warn); len(attention) > 0 {
		fmt.Println()
		fmt.Print(renderReportTable("NEEDS ATTENTION", attention, warn))
	}

	if stats.InvalidProjects > 0 {
		fmt.Println()
		fmt.Println(cli.Warn(fmt.Sprintf("  %d project(s) could not be evaluated; run `pburn projects --log-level info` for details",
			stats.InvalidProjects)))
	}
	return nil
}

// needsAttention returns valid reports that are over budget, projected over,
// or at or above the warning threshold, worst first.
func needsAttention(reports []model.ProjectReport, warnPercent float64) []model.ProjectReport {
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
	sortReportsByRemaining(out)
	return out
}
