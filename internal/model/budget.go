// Package model defines domain types for pburn projects and budget metrics.
package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// BudgetFacts holds the inputs of one budget calculation.
type BudgetFacts struct {
	Budget    decimal.Decimal
	Spent     decimal.Decimal
	StartDate time.Time
	EndDate   time.Time
	AsOf      time.Time
}

// Ratio is a percentage whose denominator may be zero.
// An undefined ratio carries no value; callers decide how to render it.
type Ratio struct {
	Value   decimal.Decimal
	Defined bool
}

// DefinedRatio wraps a computed percentage.
func DefinedRatio(v decimal.Decimal) Ratio {
	return Ratio{Value: v, Defined: true}
}

// UndefinedRatio returns the sentinel for a zero denominator.
func UndefinedRatio() Ratio {
	return Ratio{}
}

// Float64 returns the ratio as a float and whether it is defined.
func (r Ratio) Float64() (float64, bool) {
	if !r.Defined {
		return 0, false
	}
	f, _ := r.Value.Float64()
	return f, true
}

// MarshalJSON encodes an undefined ratio as null.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON decodes null as an undefined ratio.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ratio{}
		return nil
	}
	if err := r.Value.UnmarshalJSON(data); err != nil {
		return err
	}
	r.Defined = true
	return nil
}

// BudgetMetrics holds values derived from BudgetFacts. It is recomputed on
// demand and never stored.
type BudgetMetrics struct {
	PercentSpent Ratio           `json:"percent_spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	IsOverBudget bool            `json:"is_over_budget"`

	// DaysElapsed is floored at 1, so it is not a true elapsed count on or
	// before the start date.
	DaysElapsed int             `json:"days_elapsed"`
	BurnRate    decimal.Decimal `json:"burn_rate"`

	DaysRemainingInWindow    int             `json:"days_remaining_in_window"`
	ProjectedAdditionalSpend decimal.Decimal `json:"projected_additional_spend"`
	ProjectedTotalSpend      decimal.Decimal `json:"projected_total_spend"`
	IsProjectedOverBudget    bool            `json:"is_projected_over_budget"`

	// OverrunPercent is PercentSpent-100 while over budget.
	OverrunPercent Ratio `json:"overrun_percent"`

	// Exhaustion forecast at the current burn rate. ExhaustionKnown is false
	// when nothing has been spent yet and funds remain, or when the date
	// would fall after the year 9999.
	DaysUntilExhausted int       `json:"days_until_exhausted"`
	ExhaustionDate     time.Time `json:"exhaustion_date"`
	ExhaustionKnown    bool      `json:"exhaustion_known"`
}
