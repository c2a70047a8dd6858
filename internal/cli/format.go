// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/pburn/internal/model"

	"github.com/shopspring/decimal"
)

// FormatCost formats a USD amount with thousands separators and cents.
// e.g., 1234.5 -> "$1,234.50", -26400 -> "-$26,400.00"
func FormatCost(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		// beyond int64: leave the digits ungrouped
		return sign + "$" + fixed
	}
	return sign + "$" + FormatNumber(n) + "." + cents
}

// FormatCostShort formats a USD amount without cents for narrow columns.
// e.g., 146400.4 -> "$146,400"
func FormatCostShort(d decimal.Decimal) string {
	r := d.Round(0)
	if r.IsNegative() {
		return "-$" + FormatNumber(r.Neg().IntPart())
	}
	return "$" + FormatNumber(r.IntPart())
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	head := len(s) % 3
	if head > 0 {
		result.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatRatio formats a percentage ratio with one decimal, or "N/A" when the
// ratio is undefined.
func FormatRatio(r model.Ratio) string {
	if !r.Defined {
		return "N/A"
	}
	return r.Value.StringFixed(1) + "%"
}

// FormatRemaining describes the signed remaining budget.
// e.g., 42500 -> "$42,500.00 left", -26400 -> "$26,400.00 over"
func FormatRemaining(d decimal.Decimal) string {
	if d.IsNegative() {
		return FormatCost(d.Neg()) + " over"
	}
	return FormatCost(d) + " left"
}

// FormatDays formats a signed day count.
// e.g., 1 -> "1 day", -3 -> "-3 days"
func FormatDays(n int) string {
	if n == 1 || n == -1 {
		return fmt.Sprintf("%d day", n)
	}
	return fmt.Sprintf("%d days", n)
}

// FormatWindow describes the days left until a project's end date.
// e.g., 73 -> "73 days left", 0 -> "ends today", -4 -> "ended 4 days ago"
func FormatWindow(daysRemaining int) string {
	switch {
	case daysRemaining > 0:
		return FormatDays(daysRemaining) + " left"
	case daysRemaining == 0:
		return "ends today"
	default:
		return "ended " + FormatDays(-daysRemaining) + " ago"
	}
}

// FormatDate formats a calendar date, or "-" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("Jan 2, 2006")
}

// FormatExhaustion describes when the budget runs out at the current rate.
func FormatExhaustion(m model.BudgetMetrics) string {
	switch {
	case !m.ExhaustionKnown:
		return "no spend yet"
	case m.DaysUntilExhausted <= 0:
		return "exhausted"
	default:
		return fmt.Sprintf("in %s (%s)", FormatDays(m.DaysUntilExhausted), FormatDate(m.ExhaustionDate))
	}
}

// FormatStatus title-cases a status for display.
// e.g., "in-progress" -> "In Progress"
func FormatStatus(s model.Status) string {
	words := strings.Split(string(s), "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Truncate shortens s to max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
