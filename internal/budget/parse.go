package budget

import (
	"regexp"
	"strings"
	"time"

	"github.com/theirongolddev/pburn/internal/model"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used in fixtures and flags.
const DateLayout = "2006-01-02"

// RawFacts is the unparsed form of BudgetFacts, as read from fixtures or
// command-line flags.
type RawFacts struct {
	Budget    string
	Spent     string
	StartDate string
	EndDate   string
	AsOf      string
}

// ParseFacts parses every field of raw. The first failing field is
// reported as an *InvalidFactsError.
func ParseFacts(raw RawFacts) (model.BudgetFacts, error) {
	var (
		f   model.BudgetFacts
		err error
	)
	if f.Budget, err = ParseAmount(FieldBudget, raw.Budget); err != nil {
		return model.BudgetFacts{}, err
	}
	if f.Spent, err = ParseAmount(FieldSpent, raw.Spent); err != nil {
		return model.BudgetFacts{}, err
	}
	if f.StartDate, err = ParseDate(FieldStartDate, raw.StartDate); err != nil {
		return model.BudgetFacts{}, err
	}
	if f.EndDate, err = ParseDate(FieldEndDate, raw.EndDate); err != nil {
		return model.BudgetFacts{}, err
	}
	if f.AsOf, err = ParseDate(FieldAsOf, raw.AsOf); err != nil {
		return model.BudgetFacts{}, err
	}
	return f, nil
}

// groupedAmount matches an amount whose integer part is split into
// groups of three by commas.
var groupedAmount = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d*)?$`)

// ParseAmount parses a decimal amount. Currency symbols and thousands
// separators ("$1,200.50") are tolerated. Sign is not checked here; that is
// the engine's policy decision.
func ParseAmount(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, invalid(field, "is missing")
	}
	cleaned := strings.ReplaceAll(s, "$", "")
	if strings.Contains(cleaned, ",") {
		if !groupedAmount.MatchString(cleaned) {
			return decimal.Zero, invalid(field, "has misplaced thousands separators: "+s)
		}
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, invalid(field, "is not a finite decimal number: "+s)
	}
	return d, nil
}

// ParseDate parses a YYYY-MM-DD date, also accepting full RFC 3339
// timestamps (the date part is kept).
func ParseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, invalid(field, "is missing")
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return civil(t), nil
	}
	return time.Time{}, invalid(field, "is not a valid date: "+s)
}

// Today returns the current calendar date. It belongs at program edges; the
// engine itself only ever sees an explicit as-of date.
func Today() time.Time {
	return DateOf(time.Now())
}

// DateOf returns t's calendar date in its own location, as midnight UTC.
func DateOf(t time.Time) time.Time {
	return civil(t)
}
