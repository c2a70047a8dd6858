package pipeline

import (
	"time"

	"github.com/theirongolddev/pburn/internal/model"

	"github.com/shopspring/decimal"
)

// Calculator derives budget metrics from one set of facts.
// budget.Engine satisfies it.
type Calculator interface {
	Compute(facts model.BudgetFacts) (model.BudgetMetrics, error)
}

// Analyze evaluates every project at asOf. Each project is independent, so
// they are computed on the worker pool. Reports keep the input order.
func Analyze(projects []model.Project, calc Calculator, asOf time.Time) []model.ProjectReport {
	reports := make([]model.ProjectReport, len(projects))
	parallel(len(projects), func(i int) {
		m, err := calc.Compute(projects[i].Facts(asOf))
		reports[i] = model.ProjectReport{Project: projects[i], Metrics: m, Err: err}
	}, nil)
	return reports
}

// Summarize computes portfolio totals. Invalid reports are counted but
// excluded from every amount.
func Summarize(reports []model.ProjectReport) model.PortfolioStats {
	var stats model.PortfolioStats
	stats.Projects = len(reports)

	var worst *model.ProjectReport
	for i := range reports {
		r := &reports[i]
		p := r.Project

		if p.Status != model.StatusCompleted && p.Status != model.StatusArchived {
			stats.ActiveProjects++
		}
		stats.TotalExpenses += len(p.Expenses)

		if !r.Valid() {
			stats.InvalidProjects++
			continue
		}

		stats.TotalBudget = stats.TotalBudget.Add(p.Budget)
		stats.TotalSpent = stats.TotalSpent.Add(p.Spent)
		stats.TotalProjected = stats.TotalProjected.Add(r.Metrics.ProjectedTotalSpend)
		stats.DailyBurnRate = stats.DailyBurnRate.Add(r.Metrics.BurnRate)

		if r.Metrics.IsOverBudget {
			stats.OverBudget++
			if worst == nil || r.Metrics.Remaining.LessThan(worst.Metrics.Remaining) {
				worst = r
			}
		}
		if r.Metrics.IsProjectedOverBudget {
			stats.ProjectedOver++
		}
	}

	stats.TotalRemaining = stats.TotalBudget.Sub(stats.TotalSpent)
	if stats.TotalBudget.IsZero() {
		stats.PercentSpent = model.UndefinedRatio()
	} else {
		stats.PercentSpent = model.DefinedRatio(stats.TotalSpent.Div(stats.TotalBudget).Mul(decimal.NewFromInt(100)))
	}
	if worst != nil {
		w := *worst
		stats.LargestOverspend = &w
	}

	return stats
}

// FindReport returns the report for a project ID.
func FindReport(reports []model.ProjectReport, id string) (model.ProjectReport, bool) {
	for _, r := range reports {
		if r.Project.ID == id {
			return r, true
		}
	}
	return model.ProjectReport{}, false
}
