package cmd

import (
	"fmt"

	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagExpenseView  string
	flagExpenseLimit int
)

var projectCmd = &cobra.Command{
	Use:   "project <id>",
	Short: "Budget overview, projection and expenses for one project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProject,
}

func init() {
	projectCmd.Flags().StringVar(&flagExpenseView, "expenses", "recent", "Expense list: all, recent, highest")
	projectCmd.Flags().IntVar(&flagExpenseLimit, "limit", 0, "Expenses to show for recent/highest (default from config)")
	rootCmd.AddCommand(projectCmd)
}

func runProject(_ *cobra.Command, args []string) error {
	switch flagExpenseView {
	case "all", "recent", "highest":
	default:
		return fmt.Errorf("unknown --expenses view %q (want all, recent or highest)", flagExpenseView)
	}

	reports, _, asOf, err := analyzeAll()
	if err != nil {
		return err
	}
	r, ok := pipeline.FindReport(reports, args[0])
	if !ok {
		return fmt.Errorf("project %q not found", args[0])
	}
	p := r.Project

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  as of %s", cli.Truncate(p.Title, 32), cli.FormatDate(asOf))))
	fmt.Println()

	info := [][]string{
		{"ID", p.ID},
		{"Status", cli.FormatStatus(p.Status)},
	}
	if p.Client != "" {
		info = append(info, []string{"Client", p.Client})
	}
	if p.Category != "" {
		info = append(info, []string{"Category", p.Category})
	}
	info = append(info,
		[]string{"Window", fmt.Sprintf("%s - %s", cli.FormatDate(p.StartDate), cli.FormatDate(p.EndDate))},
	)
	if p.Description != "" {
		fmt.Printf("  %s\n\n", cli.Muted(p.Description))
	}

	if !r.Valid() {
		fmt.Print(cli.RenderTable(cli.Table{Rows: info}))
		fmt.Println()
		fmt.Println(cli.Warn("  Metrics unavailable: " + r.Err.Error()))
		return nil
	}

	m := r.Metrics
	warn := appCfg.Budget.WarnPercent
	rows := append(info,
		cli.Separator,
		[]string{"Budget", cli.FormatCost(p.Budget)},
		[]string{"Spent", cli.FormatCost(p.Spent)},
		[]string{"Remaining", cli.FormatRemaining(m.Remaining)},
		[]string{"Used", cli.RenderBudgetBar(m.PercentSpent, warn, 20)},
	)
	if m.OverrunPercent.Defined {
		rows = append(rows, []string{"Overrun", cli.Warn(cli.FormatRatio(m.OverrunPercent))})
	}
	rows = append(rows,
		cli.Separator,
		[]string{"Days Elapsed", cli.FormatDays(m.DaysElapsed)},
		[]string{"Burn Rate", cli.FormatCost(m.BurnRate) + "/day"},
		[]string{"Window", cli.FormatWindow(m.DaysRemainingInWindow)},
		[]string{"Projected Additional", cli.FormatCost(m.ProjectedAdditionalSpend)},
		[]string{"Projected Total", cli.FormatCost(m.ProjectedTotalSpend)},
		[]string{"Funds Run Out", cli.FormatExhaustion(m)},
	)
	fmt.Print(cli.RenderTable(cli.Table{Rows: rows}))

	switch {
	case m.IsOverBudget:
		fmt.Println(cli.Warn(fmt.Sprintf("\n  Over budget by %s.", cli.FormatCost(m.Remaining.Neg()))))
	case m.IsProjectedOverBudget:
		fmt.Println(cli.Warn(fmt.Sprintf("\n  At this pace spend reaches %s by the end date.", cli.FormatCost(m.ProjectedTotalSpend))))
	}

	if len(p.Expenses) == 0 {
		return nil
	}

	limit := flagExpenseLimit
	if limit <= 0 {
		limit = appCfg.General.ExpenseLimit
	}
	var expenses []model.Expense
	switch flagExpenseView {
	case "recent":
		expenses = pipeline.RecentExpenses(p.Expenses, limit)
	case "highest":
		expenses = pipeline.HighestExpenses(p.Expenses, limit)
	default:
		expenses = pipeline.RecentExpenses(p.Expenses, 0)
	}

	fmt.Println()
	expRows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		desc := e.Description
		if e.Manual {
			desc += " *"
		}
		expRows = append(expRows, []string{
			cli.FormatDate(e.Date), cli.Truncate(desc, 30), e.Category, cli.FormatCost(e.Amount),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("EXPENSES (%s, %d of %d)", flagExpenseView, len(expenses), len(p.Expenses)),
		Headers: []string{"Date", "Description", "Category", "Amount"},
		Rows:    expRows,
	}))

	fmt.Println()
	catRows := [][]string{}
	for _, cs := range pipeline.AggregateCategories(p.Expenses) {
		catRows = append(catRows, []string{
			cs.Category,
			cli.FormatNumber(int64(cs.Expenses)),
			cli.FormatCost(cs.Amount),
			fmt.Sprintf("%5.1f%% %s", cs.SharePercent, cli.RenderShareBar(cs.SharePercent, 15)),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "BY CATEGORY",
		Headers: []string{"Category", "Count", "Amount", "Share"},
		Rows:    catRows,
	}))

	if line := monthlySparkline(p.Expenses); line != "" {
		fmt.Printf("\n  Monthly spend  %s\n", line)
	}
	return nil
}

// monthlySparkline renders expense totals per calendar month, oldest first.
func monthlySparkline(expenses []model.Expense) string {
	months := pipeline.AggregateMonths(expenses)
	if len(months) < 2 {
		return ""
	}
	values := make([]float64, len(months))
	for i, m := range months {
		values[i] = m.Amount.InexactFloat64()
	}
	return fmt.Sprintf("%s  %s - %s", cli.RenderSparkline(values),
		months[0].Month.Format("Jan 2006"), months[len(months)-1].Month.Format("Jan 2006"))
}
