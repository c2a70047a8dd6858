package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/pburn/internal/model"

	"github.com/shopspring/decimal"
)

func TestFormatCost(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"7.5", "$7.50"},
		{"999.999", "$1,000.00"},
		{"1234.56", "$1,234.56"},
		{"146400", "$146,400.00"},
		{"-26400", "-$26,400.00"},
		{"1234567.891", "$1,234,567.89"},
	}
	for _, tt := range tests {
		if got := FormatCost(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatCost(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCostShort(t *testing.T) {
	if got := FormatCostShort(decimal.RequireFromString("-26400.4")); got != "-$26,400" {
		t.Errorf("FormatCostShort = %q", got)
	}
}

func TestFormatRatio(t *testing.T) {
	if got := FormatRatio(model.DefinedRatio(decimal.NewFromInt(122))); got != "122.0%" {
		t.Errorf("FormatRatio(122) = %q", got)
	}
	if got := FormatRatio(model.UndefinedRatio()); got != "N/A" {
		t.Errorf("FormatRatio(undefined) = %q, want N/A", got)
	}
}

func TestFormatRemaining(t *testing.T) {
	if got := FormatRemaining(decimal.NewFromInt(-26400)); got != "$26,400.00 over" {
		t.Errorf("got %q", got)
	}
	if got := FormatRemaining(decimal.NewFromInt(42500)); got != "$42,500.00 left" {
		t.Errorf("got %q", got)
	}
}

func TestFormatWindow(t *testing.T) {
	tests := map[int]string{
		73: "73 days left",
		1:  "1 day left",
		0:  "ends today",
		-1: "ended 1 day ago",
		-4: "ended 4 days ago",
	}
	for in, want := range tests {
		if got := FormatWindow(in); got != want {
			t.Errorf("FormatWindow(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatExhaustion(t *testing.T) {
	m := model.BudgetMetrics{
		DaysUntilExhausted: 39,
		ExhaustionKnown:    true,
		ExhaustionDate:     time.Date(2023, 5, 27, 0, 0, 0, 0, time.UTC),
	}
	if got := FormatExhaustion(m); got != "in 39 days (May 27, 2023)" {
		t.Errorf("got %q", got)
	}
	if got := FormatExhaustion(model.BudgetMetrics{ExhaustionKnown: true}); got != "exhausted" {
		t.Errorf("got %q", got)
	}
	if got := FormatExhaustion(model.BudgetMetrics{}); got != "no spend yet" {
		t.Errorf("got %q", got)
	}
}

func TestFormatStatusAndDate(t *testing.T) {
	if got := FormatStatus(model.StatusInProgress); got != "In Progress" {
		t.Errorf("FormatStatus = %q", got)
	}
	if got := FormatDate(time.Time{}); got != "-" {
		t.Errorf("FormatDate(zero) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Hotel Renovation", 6); got != "Hotel…" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Project", "Budget"},
		Rows: [][]string{
			{"Hotel", "$120,000"},
			Separator,
			{"Total", "$1"},
		},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want 7:\n%s", len(lines), out)
	}
	if !strings.Contains(out, "      $1 ") {
		t.Errorf("numeric column not right-aligned:\n%s", out)
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if got := RenderTable(Table{}); got != "" {
		t.Errorf("RenderTable(empty) = %q", got)
	}
}
