package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/pburn/internal/model"

	"github.com/shopspring/decimal"
)

// Uncategorized labels expenses recorded without a category.
const Uncategorized = "Uncategorized"

// ApplyManualExpenses adds each manual expense to its project's expense list
// and spent total. Expenses for unknown projects are counted as orphaned.
func ApplyManualExpenses(projects []model.Project, manual []model.Expense) (applied, orphaned int) {
	idx := make(map[string]int, len(projects))
	for i, p := range projects {
		if _, dup := idx[p.ID]; !dup {
			idx[p.ID] = i
		}
	}

	for _, e := range manual {
		i, ok := idx[e.ProjectID]
		if !ok {
			orphaned++
			continue
		}
		e.Manual = true
		projects[i].Expenses = append(projects[i].Expenses, e)
		projects[i].Spent = projects[i].Spent.Add(e.Amount)
		applied++
	}
	return applied, orphaned
}

// RecentExpenses returns up to n expenses, newest first. n <= 0 returns all.
// The input slice is not reordered.
func RecentExpenses(expenses []model.Expense, n int) []model.Expense {
	out := cloneExpenses(expenses)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return limit(out, n)
}

// HighestExpenses returns up to n expenses, largest amount first.
// n <= 0 returns all. The input slice is not reordered.
func HighestExpenses(expenses []model.Expense, n int) []model.Expense {
	out := cloneExpenses(expenses)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	return limit(out, n)
}

// AggregateCategories totals expenses per category, sorted by amount
// descending.
func AggregateCategories(expenses []model.Expense) []model.CategoryStats {
	byCat := make(map[string]*model.CategoryStats)
	total := decimal.Zero

	for _, e := range expenses {
		name := strings.TrimSpace(e.Category)
		if name == "" {
			name = Uncategorized
		}
		cs, ok := byCat[name]
		if !ok {
			cs = &model.CategoryStats{Category: name}
			byCat[name] = cs
		}
		cs.Expenses++
		cs.Amount = cs.Amount.Add(e.Amount)
		total = total.Add(e.Amount)
	}

	result := make([]model.CategoryStats, 0, len(byCat))
	for _, cs := range byCat {
		if total.IsPositive() {
			cs.SharePercent = cs.Amount.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		result = append(result, *cs)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Amount.Equal(result[j].Amount) {
			return result[i].Amount.GreaterThan(result[j].Amount)
		}
		return result[i].Category < result[j].Category
	})
	return result
}

// AggregateMonths totals dated expenses per calendar month, oldest first.
// Months without expenses between the first and last are included as zero.
func AggregateMonths(expenses []model.Expense) []model.MonthStats {
	byMonth := make(map[time.Time]*model.MonthStats)
	var first, last time.Time

	for _, e := range expenses {
		if e.Date.IsZero() {
			continue
		}
		m := time.Date(e.Date.Year(), e.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		ms, ok := byMonth[m]
		if !ok {
			ms = &model.MonthStats{Month: m}
			byMonth[m] = ms
		}
		ms.Expenses++
		ms.Amount = ms.Amount.Add(e.Amount)
		if first.IsZero() || m.Before(first) {
			first = m
		}
		if m.After(last) {
			last = m
		}
	}
	if len(byMonth) == 0 {
		return nil
	}

	var out []model.MonthStats
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		if ms, ok := byMonth[m]; ok {
			out = append(out, *ms)
		} else {
			out = append(out, model.MonthStats{Month: m})
		}
	}
	return out
}

func cloneExpenses(expenses []model.Expense) []model.Expense {
	out := make([]model.Expense, len(expenses))
	copy(out, expenses)
	return out
}

func limit(expenses []model.Expense, n int) []model.Expense {
	if n > 0 && len(expenses) > n {
		return expenses[:n]
	}
	return expenses
}
