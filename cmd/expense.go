package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/pburn/internal/budget"
	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/pipeline"
	"github.com/theirongolddev/pburn/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagExpenseAmount   string
	flagExpenseDesc     string
	flagExpenseCategory string
	flagExpenseDate     string
)

var expenseCmd = &cobra.Command{
	Use:   "expense",
	Short: "Record and manage manual expenses",
}

var expenseAddCmd = &cobra.Command{
	Use:   "add <project-id>",
	Short: "Record a manual expense against a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpenseAdd,
}

var expenseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List manually recorded expenses",
	RunE:  runExpenseList,
}

var expenseRmCmd = &cobra.Command{
	Use:   "rm <expense-id>",
	Short: "Remove a manually recorded expense",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpenseRm,
}

func init() {
	expenseAddCmd.Flags().StringVarP(&flagExpenseAmount, "amount", "a", "", "Amount, e.g. 1250.00 (required)")
	expenseAddCmd.Flags().StringVar(&flagExpenseDesc, "description", "", "What the money was spent on")
	expenseAddCmd.Flags().StringVar(&flagExpenseCategory, "category", "", "Expense category")
	expenseAddCmd.Flags().StringVar(&flagExpenseDate, "date", "", "Expense date (YYYY-MM-DD, default today)")
	_ = expenseAddCmd.MarkFlagRequired("amount")

	expenseCmd.AddCommand(expenseAddCmd, expenseListCmd, expenseRmCmd)
	rootCmd.AddCommand(expenseCmd)
}

func openLedger() (*store.Cache, error) {
	cache, err := store.Open(pipeline.CachePath())
	if err != nil {
		return nil, fmt.Errorf("opening expense ledger: %w", err)
	}
	return cache, nil
}

func runExpenseAdd(_ *cobra.Command, args []string) error {
	amount, err := budget.ParseAmount("amount", flagExpenseAmount)
	if err != nil {
		return err
	}
	if !amount.IsPositive() {
		return errors.New("amount must be greater than zero")
	}

	date := budget.Today()
	if flagExpenseDate != "" {
		if date, err = budget.ParseDate("date", flagExpenseDate); err != nil {
			return err
		}
	}

	// The project must exist in the current fixtures.
	result, err := loadData()
	if err != nil {
		return err
	}
	var project *model.Project
	for i := range result.Projects {
		if result.Projects[i].ID == args[0] {
			project = &result.Projects[i]
			break
		}
	}
	if project == nil {
		return fmt.Errorf("project %q not found in %s", args[0], dataDir())
	}

	cache, err := openLedger()
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()

	e := model.Expense{
		ID:          uuid.NewString(),
		ProjectID:   project.ID,
		Description: flagExpenseDesc,
		Amount:      amount,
		Category:    flagExpenseCategory,
		Date:        date,
		Manual:      true,
	}
	if err := cache.AddExpense(e); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"expense": e.ID, "project": project.ID}).Info("expense recorded")

	fmt.Printf("  Recorded %s against %s (%s)\n", cli.FormatCost(amount), project.Title, e.ID)
	fmt.Printf("  Spent is now %s of %s\n", cli.FormatCost(project.Spent.Add(amount)), cli.FormatCost(project.Budget))
	return nil
}

func runExpenseList(_ *cobra.Command, _ []string) error {
	cache, err := openLedger()
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()

	expenses, err := cache.ManualExpenses()
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		fmt.Println("\n  No manual expenses recorded.")
		return nil
	}

	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []string{
			e.ID, e.ProjectID, cli.FormatDate(e.Date), cli.Truncate(e.Description, 28), e.Category, cli.FormatCost(e.Amount),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "MANUAL EXPENSES",
		Headers: []string{"ID", "Project", "Date", "Description", "Category", "Amount"},
		Rows:    rows,
	}))
	return nil
}

func runExpenseRm(_ *cobra.Command, args []string) error {
	cache, err := openLedger()
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()

	ok, err := cache.DeleteExpense(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("expense %q not found", args[0])
	}
	fmt.Printf("  Removed expense %s\n", args[0])
	return nil
}
