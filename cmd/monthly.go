package cmd

import (
	"fmt"

	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/pipeline"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var flagMonthlyProject string

var monthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Expense totals per calendar month",
	RunE:  runMonthly,
}

func init() {
	monthlyCmd.Flags().StringVarP(&flagMonthlyProject, "project", "p", "", "Only this project ID")
	rootCmd.AddCommand(monthlyCmd)
}

func runMonthly(_ *cobra.Command, _ []string) error {
	result, err := loadData()
	if err != nil {
		return err
	}

	var expenses []model.Expense
	found := flagMonthlyProject == ""
	for _, p := range result.Projects {
		if flagMonthlyProject != "" && p.ID != flagMonthlyProject {
			continue
		}
		found = true
		expenses = append(expenses, p.Expenses...)
	}
	if !found {
		return fmt.Errorf("project %q not found", flagMonthlyProject)
	}

	months := pipeline.AggregateMonths(expenses)
	if len(months) == 0 {
		fmt.Println("\n  No dated expenses found.")
		return nil
	}

	peak := 0.0
	for _, m := range months {
		peak = max(peak, m.Amount.InexactFloat64())
	}

	title := "MONTHLY SPEND"
	if flagMonthlyProject != "" {
		title += "  project " + flagMonthlyProject
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	cumulative := decimal.Zero
	rows := make([][]string, 0, len(months))
	for _, m := range months {
		cumulative = cumulative.Add(m.Amount)
		share := 0.0
		if peak > 0 {
			share = m.Amount.InexactFloat64() / peak * 100
		}
		rows = append(rows, []string{
			m.Month.Format("Jan 2006"),
			cli.FormatNumber(int64(m.Expenses)),
			cli.FormatCost(m.Amount),
			cli.FormatCost(cumulative),
			cli.RenderShareBar(share, 20),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Month", "Expenses", "Amount", "Cumulative", ""},
		Rows:    rows,
	}))
	return nil
}
