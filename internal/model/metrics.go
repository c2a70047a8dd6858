package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectReport pairs a project with its derived metrics. Err is set when
// the project's facts failed validation; Metrics is zero in that case.
type ProjectReport struct {
	Project Project
	Metrics BudgetMetrics
	Err     error
}

// Valid reports whether metrics were computed for the project.
func (r ProjectReport) Valid() bool {
	return r.Err == nil
}

// PortfolioStats holds the top-level aggregate across all projects.
type PortfolioStats struct {
	Projects         int
	ActiveProjects   int
	InvalidProjects  int
	OverBudget       int
	ProjectedOver    int
	TotalBudget      decimal.Decimal
	TotalSpent       decimal.Decimal
	TotalRemaining   decimal.Decimal
	TotalProjected   decimal.Decimal
	PercentSpent     Ratio
	DailyBurnRate    decimal.Decimal // sum of per-project burn rates
	TotalExpenses    int
	LargestOverspend *ProjectReport
}

// CategoryStats holds aggregated expense totals for one category.
type CategoryStats struct {
	Category     string          `json:"category"`
	Expenses     int             `json:"expenses"`
	Amount       decimal.Decimal `json:"amount"`
	SharePercent float64         `json:"share_percent"`
}

// MonthStats holds expense totals for one calendar month.
type MonthStats struct {
	Month    time.Time       `json:"month"` // first day of the month, UTC
	Expenses int             `json:"expenses"`
	Amount   decimal.Decimal `json:"amount"`
}
