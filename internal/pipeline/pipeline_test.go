package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/theirongolddev/pburn/internal/budget"
	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/store"

	"github.com/shopspring/decimal"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const hotelFixture = `
projects:
  - id: "1"
    title: Hotel Renovation
    category: facilities
    budget: 120000
    spent: 146400
    startDate: 2023-01-15
    endDate: 2023-06-30
    expenses:
      - {id: e1, amount: 45000, category: Materials, date: 2023-02-10}
      - {id: e2, amount: 28000, category: Labor, date: 2023-03-05}
`

const officeFixture = `
projects:
  - id: "2"
    title: Office Complex Design
    category: development
    status: pending
    budget: 85000
    spent: 42500
    startDate: 2023-03-10
    endDate: 2023-08-15
  - id: broken
    budget: plenty
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", officeFixture)
	writeFile(t, dir, "a.yaml", hotelFixture)
	writeFile(t, dir, "c.yaml", "projects: {not a list")

	var calls atomic.Int64
	result, err := Load(dir, func(current, total int) {
		calls.Add(1)
		if total != 3 {
			t.Errorf("progress total = %d, want 3", total)
		}
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if result.TotalFiles != 3 || result.ParsedFiles != 2 || result.FileErrors != 1 {
		t.Errorf("files = %d/%d/%d, want 3 total, 2 parsed, 1 error",
			result.TotalFiles, result.ParsedFiles, result.FileErrors)
	}
	if result.ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", result.ParseErrors)
	}
	if len(result.Projects) != 2 || result.Projects[0].ID != "1" {
		t.Fatalf("Projects = %+v, want a.yaml project first", result.Projects)
	}
	if calls.Load() != 3 {
		t.Errorf("progress calls = %d, want 3", calls.Load())
	}
}

func TestLoad_MissingDir(t *testing.T) {
	result, err := Load(filepath.Join(t.TempDir(), "absent"), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(result.Projects) != 0 {
		t.Errorf("Projects = %v, want none", result.Projects)
	}
}

func TestLoadWithCache(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", hotelFixture)
	writeFile(t, dir, "b.yaml", officeFixture)

	cache, err := store.Open(filepath.Join(t.TempDir(), "projects.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	first, err := LoadWithCache(dir, cache, nil)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if first.Reparsed != 2 || first.CacheHits != 0 {
		t.Errorf("first run reparsed=%d hits=%d, want 2/0", first.Reparsed, first.CacheHits)
	}

	err = cache.AddExpense(model.Expense{
		ID: "m1", ProjectID: "2", Amount: decimal.NewFromInt(500),
		Category: "Travel", Date: mustDate(t, "2023-04-01"),
	})
	if err != nil {
		t.Fatal(err)
	}
	_ = cache.AddExpense(model.Expense{ID: "m2", ProjectID: "ghost", Amount: decimal.NewFromInt(1), Date: mustDate(t, "2023-04-01")})

	second, err := LoadWithCache(dir, cache, nil)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if second.CacheHits != 2 || second.Reparsed != 0 {
		t.Errorf("second run hits=%d reparsed=%d, want 2/0", second.CacheHits, second.Reparsed)
	}
	if second.ParseErrors != 1 {
		t.Errorf("cached ParseErrors = %d, want 1", second.ParseErrors)
	}
	if second.ManualApplied != 1 || second.ManualOrphaned != 1 {
		t.Errorf("manual applied/orphaned = %d/%d, want 1/1", second.ManualApplied, second.ManualOrphaned)
	}

	var office model.Project
	for _, p := range second.Projects {
		if p.ID == "2" {
			office = p
		}
	}
	if !office.Spent.Equal(decimal.NewFromInt(43000)) {
		t.Errorf("office Spent = %s, want 43000 with manual expense", office.Spent)
	}
	if len(office.Expenses) != 1 || !office.Expenses[0].Manual {
		t.Errorf("office Expenses = %+v", office.Expenses)
	}

	if len(second.Projects) != 2 || second.Projects[0].ID != "1" || len(second.Projects[0].Expenses) != 2 {
		t.Errorf("cached projects = %+v", second.Projects)
	}

	if err := os.Remove(a); err != nil {
		t.Fatal(err)
	}
	third, err := LoadWithCache(dir, cache, nil)
	if err != nil {
		t.Fatalf("third load: %v", err)
	}
	if third.Evicted != 1 || len(third.Projects) != 1 {
		t.Errorf("after delete: evicted=%d projects=%d, want 1/1", third.Evicted, len(third.Projects))
	}
}

func TestLoad_DuplicateIDsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", `
projects:
  - {id: "1", title: Alpha, budget: 1000, spent: 100, startDate: 2023-01-01, endDate: 2023-12-31}
`)
	writeFile(t, dir, "b.yaml", `
projects:
  - {id: "1", title: Beta, budget: 5000, spent: 200, startDate: 2023-01-01, endDate: 2023-12-31}
  - {id: "2", title: Gamma, budget: 300, spent: 0, startDate: 2023-01-01, endDate: 2023-12-31}
`)

	cache, err := store.Open(filepath.Join(t.TempDir(), "projects.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	uncached, err := Load(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	cold, err := LoadWithCache(dir, cache, nil)
	if err != nil {
		t.Fatal(err)
	}
	warm, err := LoadWithCache(dir, cache, nil)
	if err != nil {
		t.Fatal(err)
	}
	if warm.CacheHits != 2 {
		t.Fatalf("warm CacheHits = %d, want 2", warm.CacheHits)
	}

	for name, r := range map[string]*LoadResult{
		"uncached": uncached,
		"cold":     &cold.LoadResult,
		"warm":     &warm.LoadResult,
	} {
		if len(r.Projects) != 2 {
			t.Errorf("%s: projects = %d, want 2", name, len(r.Projects))
			continue
		}
		if r.Projects[0].Title != "Alpha" || r.Projects[1].Title != "Gamma" {
			t.Errorf("%s: projects = %s, %s; want Alpha, Gamma", name, r.Projects[0].Title, r.Projects[1].Title)
		}
		if r.Duplicates != 1 {
			t.Errorf("%s: Duplicates = %d, want 1", name, r.Duplicates)
		}
		if s := Summarize(Analyze(r.Projects, budget.Default, mustDate(t, "2023-06-01"))); !s.TotalBudget.Equal(decimal.NewFromInt(1300)) {
			t.Errorf("%s: TotalBudget = %s, want 1300", name, s.TotalBudget)
		}
	}
}

func TestAnalyze_KeepsOrderAndErrors(t *testing.T) {
	projects := syntheticProjects(64)
	projects[10].Spent = decimal.NewFromInt(-5)
	asOf := mustDate(t, "2023-09-01")

	reports := Analyze(projects, budget.Default, asOf)
	if len(reports) != len(projects) {
		t.Fatalf("got %d reports, want %d", len(reports), len(projects))
	}
	for i, r := range reports {
		if r.Project.ID != projects[i].ID {
			t.Fatalf("reports[%d] = project %s, want %s", i, r.Project.ID, projects[i].ID)
		}
	}

	var ife *budget.InvalidFactsError
	if !errors.As(reports[10].Err, &ife) || ife.Field != budget.FieldSpent {
		t.Errorf("reports[10].Err = %v, want spent error", reports[10].Err)
	}

	want, _ := budget.ComputeMetrics(projects[3].Facts(asOf))
	if !reports[3].Metrics.BurnRate.Equal(want.BurnRate) {
		t.Errorf("concurrent burn rate %s != direct %s", reports[3].Metrics.BurnRate, want.BurnRate)
	}
}

func TestSummarize(t *testing.T) {
	asOf := mustDate(t, "2023-04-18")
	projects := []model.Project{
		{
			ID: "1", Status: model.StatusInProgress,
			Budget: decimal.NewFromInt(120000), Spent: decimal.NewFromInt(146400),
			StartDate: mustDate(t, "2023-01-15"), EndDate: mustDate(t, "2023-06-30"),
			Expenses: make([]model.Expense, 6),
		},
		{
			ID: "2", Status: model.StatusCompleted,
			Budget: decimal.NewFromInt(80000), Spent: decimal.NewFromInt(40000),
			StartDate: mustDate(t, "2023-03-10"), EndDate: mustDate(t, "2023-08-15"),
		},
		{ID: "3", Budget: decimal.NewFromInt(999)}, // no dates
	}

	stats := Summarize(Analyze(projects, budget.Default, asOf))

	if stats.Projects != 3 || stats.InvalidProjects != 1 || stats.ActiveProjects != 2 {
		t.Errorf("counts = %d/%d/%d", stats.Projects, stats.InvalidProjects, stats.ActiveProjects)
	}
	if !stats.TotalBudget.Equal(decimal.NewFromInt(200000)) {
		t.Errorf("TotalBudget = %s, want 200000", stats.TotalBudget)
	}
	if !stats.TotalRemaining.Equal(decimal.NewFromInt(13600)) {
		t.Errorf("TotalRemaining = %s, want 13600", stats.TotalRemaining)
	}
	if got := stats.PercentSpent.Value.String(); !stats.PercentSpent.Defined || got != "93.2" {
		t.Errorf("PercentSpent = %+v, want 93.2", stats.PercentSpent)
	}
	if stats.OverBudget != 1 || stats.LargestOverspend == nil || stats.LargestOverspend.Project.ID != "1" {
		t.Errorf("over budget = %d, largest = %+v", stats.OverBudget, stats.LargestOverspend)
	}
	if stats.TotalExpenses != 6 {
		t.Errorf("TotalExpenses = %d, want 6", stats.TotalExpenses)
	}
}

func TestSummarize_ZeroBudgetPortfolio(t *testing.T) {
	stats := Summarize(nil)
	if stats.PercentSpent.Defined {
		t.Errorf("PercentSpent = %+v, want undefined", stats.PercentSpent)
	}
}

func TestFilterProjects(t *testing.T) {
	projects := []model.Project{
		{ID: "1", Title: "Hotel Renovation", Category: "facilities", Status: model.StatusInProgress,
			Budget: decimal.NewFromInt(10), Spent: decimal.NewFromInt(20)},
		{ID: "2", Title: "Office Complex", Description: "New HQ design", Category: "development", Status: model.StatusPending},
		{ID: "3", Title: "Marketing Blitz", Category: "Marketing", Status: model.StatusCompleted},
	}

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"empty", Query{}, []string{"1", "2", "3"}},
		{"search title", Query{Search: "HOTEL"}, []string{"1"}},
		{"search description", Query{Search: "hq"}, []string{"2"}},
		{"search category", Query{Search: "market"}, []string{"3"}},
		{"category set", Query{Categories: []string{"marketing", "facilities"}}, []string{"1", "3"}},
		{"status", Query{Status: "pending"}, []string{"2"}},
		{"all", Query{Status: "all"}, []string{"1", "2", "3"}},
		{"overbudget", Query{Status: StatusOverBudget}, []string{"1"}},
		{"combined", Query{Search: "o", Status: "completed"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterProjects(projects, tt.q)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d projects, want %v", len(got), tt.want)
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("got[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestValidateStatus(t *testing.T) {
	for _, s := range []string{"", "all", "Active", "overbudget", "archived"} {
		if err := ValidateStatus(s); err != nil {
			t.Errorf("ValidateStatus(%q) = %v", s, err)
		}
	}
	if err := ValidateStatus("done"); err == nil {
		t.Error("ValidateStatus(done) accepted")
	}
}

func TestSortProjects(t *testing.T) {
	projects := []model.Project{
		{ID: "2", Title: "beta", Budget: decimal.NewFromInt(300), Spent: decimal.NewFromInt(5), EndDate: mustDate(t, "2023-09-01")},
		{ID: "10", Title: "Alpha", Budget: decimal.NewFromInt(100), Spent: decimal.NewFromInt(50)},
		{ID: "1", Title: "gamma", Budget: decimal.NewFromInt(200), Spent: decimal.NewFromInt(7), EndDate: mustDate(t, "2023-03-01")},
	}

	tests := []struct {
		key     SortKey
		reverse bool
		want    []string
	}{
		{SortNewest, false, []string{"10", "2", "1"}},
		{SortNewest, true, []string{"1", "2", "10"}},
		{SortAlphabetical, false, []string{"10", "2", "1"}},
		{SortBudgetHigh, false, []string{"2", "1", "10"}},
		{SortBudgetLow, false, []string{"10", "1", "2"}},
		{SortDeadline, false, []string{"1", "2", "10"}},
		{SortSpent, false, []string{"10", "1", "2"}},
	}
	for _, tt := range tests {
		got := SortProjects(projects, tt.key, tt.reverse)
		for i, id := range tt.want {
			if got[i].ID != id {
				t.Errorf("%s reverse=%v: got[%d] = %s, want %s", tt.key, tt.reverse, i, got[i].ID, id)
			}
		}
	}
	if projects[0].ID != "2" {
		t.Error("SortProjects reordered its input")
	}
}

func TestParseSortKey(t *testing.T) {
	if k, err := ParseSortKey("budget"); err != nil || k != SortBudgetHigh {
		t.Errorf("ParseSortKey(budget) = %v, %v", k, err)
	}
	if k, _ := ParseSortKey(""); k != SortNewest {
		t.Errorf("ParseSortKey(\"\") = %v, want newest", k)
	}
	if _, err := ParseSortKey("random"); err == nil {
		t.Error("ParseSortKey(random) accepted")
	}
}

func TestRecentAndHighestExpenses(t *testing.T) {
	expenses := []model.Expense{
		{ID: "e1", Amount: decimal.NewFromInt(45000), Date: mustDate(t, "2023-02-10")},
		{ID: "e2", Amount: decimal.NewFromInt(28000), Date: mustDate(t, "2023-03-05")},
		{ID: "e3", Amount: decimal.NewFromInt(18400), Date: mustDate(t, "2023-03-20")},
		{ID: "e4", Amount: decimal.NewFromInt(32000), Date: mustDate(t, "2023-04-15")},
	}

	recent := RecentExpenses(expenses, 2)
	if len(recent) != 2 || recent[0].ID != "e4" || recent[1].ID != "e3" {
		t.Errorf("RecentExpenses = %v", ids(recent))
	}

	highest := HighestExpenses(expenses, 0)
	if got := ids(highest); got != "e1,e4,e2,e3" {
		t.Errorf("HighestExpenses = %s, want e1,e4,e2,e3", got)
	}

	if got := ids(expenses); got != "e1,e2,e3,e4" {
		t.Errorf("input reordered to %s", got)
	}
}

func TestAggregateCategories(t *testing.T) {
	expenses := []model.Expense{
		{Amount: decimal.NewFromInt(300), Category: "Labor"},
		{Amount: decimal.NewFromInt(100), Category: ""},
		{Amount: decimal.NewFromInt(600), Category: "Materials"},
		{Amount: decimal.NewFromInt(0), Category: "Labor"},
	}

	cats := AggregateCategories(expenses)
	if len(cats) != 3 {
		t.Fatalf("got %d categories, want 3", len(cats))
	}
	if cats[0].Category != "Materials" || cats[0].SharePercent != 60 {
		t.Errorf("cats[0] = %+v, want Materials at 60%%", cats[0])
	}
	if cats[1].Category != "Labor" || cats[1].Expenses != 2 {
		t.Errorf("cats[1] = %+v, want Labor with 2 expenses", cats[1])
	}
	if cats[2].Category != Uncategorized {
		t.Errorf("cats[2] = %+v, want %s", cats[2], Uncategorized)
	}
}

func TestAggregateMonths(t *testing.T) {
	expenses := []model.Expense{
		{Amount: decimal.NewFromInt(100), Date: mustDate(t, "2023-04-02")},
		{Amount: decimal.NewFromInt(50), Date: mustDate(t, "2023-01-31")},
		{Amount: decimal.NewFromInt(25), Date: mustDate(t, "2023-01-05")},
		{Amount: decimal.NewFromInt(999)}, // undated
	}

	months := AggregateMonths(expenses)
	if len(months) != 4 {
		t.Fatalf("got %d months, want 4 (Jan-Apr with gaps)", len(months))
	}
	if !months[0].Month.Equal(mustDate(t, "2023-01-01")) || months[0].Expenses != 2 || !months[0].Amount.Equal(decimal.NewFromInt(75)) {
		t.Errorf("months[0] = %+v, want Jan with 2 expenses totalling 75", months[0])
	}
	if months[1].Expenses != 0 || !months[1].Amount.IsZero() {
		t.Errorf("months[1] = %+v, want empty Feb", months[1])
	}
	if !months[3].Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("months[3] = %+v, want Apr 100", months[3])
	}

	if AggregateMonths(nil) != nil {
		t.Error("AggregateMonths(nil) should be nil")
	}
}

func TestSelectReports(t *testing.T) {
	reports := []model.ProjectReport{
		{Project: model.Project{ID: "1", Title: "Hotel Renovation", Budget: decimal.NewFromInt(120000), Spent: decimal.NewFromInt(146400)}},
		{Project: model.Project{ID: "2", Title: "Office Complex", Budget: decimal.NewFromInt(85000)}},
		{Project: model.Project{ID: "3", Title: "Hotel Lobby", Budget: decimal.NewFromInt(20000)}, Err: errors.New("bad")},
	}

	got := SelectReports(reports, Query{Search: "hotel"}, SortBudgetLow, false)
	if len(got) != 2 || got[0].Project.ID != "3" || got[1].Project.ID != "1" {
		t.Fatalf("SelectReports = %+v, want 3 then 1", got)
	}
	if got[0].Err == nil {
		t.Error("report error lost in selection")
	}

	over := SelectReports(reports, Query{Status: StatusOverBudget}, SortNewest, false)
	if len(over) != 1 || over[0].Project.ID != "1" {
		t.Errorf("over budget selection = %+v, want project 1", over)
	}
}

func TestSelectReports_DuplicateIDsStayDistinct(t *testing.T) {
	reports := []model.ProjectReport{
		{Project: model.Project{ID: "1", Title: "Alpha", Budget: decimal.NewFromInt(100)}},
		{Project: model.Project{ID: "1", Title: "Beta", Budget: decimal.NewFromInt(200)}},
	}

	got := SelectReports(reports, Query{}, SortBudgetHigh, false)
	if len(got) != 2 || got[0].Project.Title != "Beta" || got[1].Project.Title != "Alpha" {
		t.Errorf("SelectReports = %+v, want Beta then Alpha", got)
	}
}

func ids(expenses []model.Expense) string {
	var s string
	for i, e := range expenses {
		if i > 0 {
			s += ","
		}
		s += e.ID
	}
	return s
}
