// Package budget derives budget metrics (burn rate, projections, over/under
// status) from a project's financial facts.
//
// The engine is a pure transform: it never reads the clock, keeps no state
// and is safe to call from any number of goroutines.
package budget

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/pburn/internal/model"

	"github.com/shopspring/decimal"
)

// Policy controls how negative input amounts are treated.
type Policy int

const (
	// PolicyReject fails validation on a negative budget or spend.
	PolicyReject Policy = iota
	// PolicyClamp normalizes negative amounts to zero.
	PolicyClamp
)

func (p Policy) String() string {
	if p == PolicyClamp {
		return "clamp"
	}
	return "reject"
}

// ParsePolicy parses "reject" or "clamp". The empty string means reject.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return PolicyReject, nil
	case "clamp":
		return PolicyClamp, nil
	default:
		return PolicyReject, fmt.Errorf("unknown negative amount policy %q (want reject or clamp)", s)
	}
}

// Engine computes budget metrics under a negative-amount policy.
// The zero value rejects negative amounts.
type Engine struct {
	Policy Policy
}

// Default is the engine used by ComputeMetrics.
var Default = Engine{Policy: PolicyReject}

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

const secondsPerDay = 24 * 60 * 60

// horizon is the latest exhaustion date the engine will forecast.
var horizon = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// ComputeMetrics derives metrics from facts using the default engine.
func ComputeMetrics(facts model.BudgetFacts) (model.BudgetMetrics, error) {
	return Default.Compute(facts)
}

// Compute validates facts and derives the full metric set. On error no
// metrics are returned.
func (e Engine) Compute(facts model.BudgetFacts) (model.BudgetMetrics, error) {
	f, err := e.normalize(facts)
	if err != nil {
		return model.BudgetMetrics{}, err
	}

	var m model.BudgetMetrics

	m.Remaining = f.Budget.Sub(f.Spent)
	m.IsOverBudget = f.Spent.GreaterThan(f.Budget)
	if f.Budget.IsZero() {
		m.PercentSpent = model.UndefinedRatio()
	} else {
		m.PercentSpent = model.DefinedRatio(f.Spent.Div(f.Budget).Mul(hundred))
	}
	if m.IsOverBudget && m.PercentSpent.Defined {
		m.OverrunPercent = model.DefinedRatio(m.PercentSpent.Value.Sub(hundred))
	}

	m.DaysElapsed = DaysBetween(f.StartDate, f.AsOf)
	if m.DaysElapsed < 1 {
		m.DaysElapsed = 1
	}
	elapsed := decimal.NewFromInt(int64(m.DaysElapsed))
	m.BurnRate = f.Spent.Div(elapsed)

	// An inverted window yields a negative count; it is propagated as is.
	m.DaysRemainingInWindow = DaysBetween(f.AsOf, f.EndDate)
	m.ProjectedAdditionalSpend = m.BurnRate.Mul(decimal.NewFromInt(int64(m.DaysRemainingInWindow)))
	m.ProjectedTotalSpend = f.Spent.Add(m.ProjectedAdditionalSpend)
	m.IsProjectedOverBudget = m.ProjectedTotalSpend.GreaterThan(f.Budget)

	switch {
	case !m.Remaining.IsPositive():
		m.ExhaustionKnown = true
	case f.Spent.IsPositive():
		// remaining / (spent / elapsed), folded to a single division.
		days := m.Remaining.Mul(elapsed).Div(f.Spent).Ceil()
		// Beyond the last representable calendar date the forecast stays unknown.
		if days.LessThanOrEqual(decimal.NewFromInt(int64(DaysBetween(f.AsOf, horizon)))) {
			m.DaysUntilExhausted = int(days.IntPart())
			m.ExhaustionKnown = true
		}
	}
	if m.ExhaustionKnown {
		m.ExhaustionDate = civil(f.AsOf).AddDate(0, 0, m.DaysUntilExhausted)
	}

	return m, nil
}

func (e Engine) normalize(f model.BudgetFacts) (model.BudgetFacts, error) {
	if f.Budget.IsNegative() {
		if e.Policy != PolicyClamp {
			return f, invalid(FieldBudget, "must not be negative")
		}
		f.Budget = zero
	}
	if f.Spent.IsNegative() {
		if e.Policy != PolicyClamp {
			return f, invalid(FieldSpent, "must not be negative")
		}
		f.Spent = zero
	}
	if f.StartDate.IsZero() {
		return f, invalid(FieldStartDate, "is missing")
	}
	if f.EndDate.IsZero() {
		return f, invalid(FieldEndDate, "is missing")
	}
	if f.AsOf.IsZero() {
		return f, invalid(FieldAsOf, "is missing")
	}
	return f, nil
}

// DaysBetween returns the signed number of calendar days from one date to
// another. Times of day and locations are ignored; only the dates count.
func DaysBetween(from, to time.Time) int {
	return int((civil(to).Unix() - civil(from).Unix()) / secondsPerDay)
}

func civil(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
