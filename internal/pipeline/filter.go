package pipeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/theirongolddev/pburn/internal/model"
)

// StatusOverBudget is the pseudo-status matching projects whose spend
// exceeds their budget.
const StatusOverBudget = "overbudget"

// Query selects projects for a list view. Zero fields match everything.
type Query struct {
	Search     string   // case-insensitive, over title, description and category
	Categories []string // any of; case-insensitive
	Status     string   // "", "all", a model.Status, or StatusOverBudget
}

// StatusFilters lists every accepted Query.Status value.
func StatusFilters() []string {
	out := []string{"all"}
	for _, s := range model.Statuses {
		out = append(out, string(s))
	}
	return append(out, StatusOverBudget)
}

// ValidateStatus reports an error for an unknown status filter.
func ValidateStatus(s string) error {
	if s == "" {
		return nil
	}
	for _, f := range StatusFilters() {
		if strings.EqualFold(s, f) {
			return nil
		}
	}
	return fmt.Errorf("unknown status %q (want one of %s)", s, strings.Join(StatusFilters(), ", "))
}

// FilterProjects returns the projects matching q, preserving order.
func FilterProjects(projects []model.Project, q Query) []model.Project {
	match := q.matcher()
	var out []model.Project
	for _, p := range projects {
		if match(p) {
			out = append(out, p)
		}
	}
	return out
}

// matcher compiles q into a predicate.
func (q Query) matcher() func(model.Project) bool {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	status := strings.ToLower(strings.TrimSpace(q.Status))

	cats := make(map[string]struct{}, len(q.Categories))
	for _, c := range q.Categories {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			cats[c] = struct{}{}
		}
	}

	return func(p model.Project) bool {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) &&
			!strings.Contains(strings.ToLower(p.Category), search) {
			return false
		}
		if len(cats) > 0 {
			if _, ok := cats[strings.ToLower(p.Category)]; !ok {
				return false
			}
		}
		switch status {
		case "", "all":
			return true
		case StatusOverBudget:
			return p.IsOverBudget()
		default:
			return string(p.Status) == status
		}
	}
}

// SortKey names a project ordering.
type SortKey string

const (
	SortNewest       SortKey = "newest"       // highest ID first
	SortAlphabetical SortKey = "alphabetical" // title A-Z
	SortBudgetHigh   SortKey = "budget-high"
	SortBudgetLow    SortKey = "budget-low"
	SortDeadline     SortKey = "deadline" // earliest end date first
	SortSpent        SortKey = "spent"    // most spent first
)

// SortKeys lists every accepted sort key.
var SortKeys = []SortKey{SortNewest, SortAlphabetical, SortBudgetHigh, SortBudgetLow, SortDeadline, SortSpent}

// ParseSortKey parses a sort key. "budget" is accepted for budget-high and
// the empty string means newest.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return SortNewest, nil
	case "budget":
		return SortBudgetHigh, nil
	}
	for _, k := range SortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return SortNewest, fmt.Errorf("unknown sort key %q", s)
}

// SortProjects returns a sorted copy of projects. reverse flips the key's
// natural direction. Ties keep their input order.
func SortProjects(projects []model.Project, key SortKey, reverse bool) []model.Project {
	out := make([]model.Project, len(projects))
	copy(out, projects)

	less := lessFor(key)
	sort.SliceStable(out, func(i, j int) bool {
		if reverse {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lessFor(key SortKey) func(a, b model.Project) bool {
	switch key {
	case SortAlphabetical:
		return func(a, b model.Project) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case SortBudgetHigh:
		return func(a, b model.Project) bool { return a.Budget.GreaterThan(b.Budget) }
	case SortBudgetLow:
		return func(a, b model.Project) bool { return a.Budget.LessThan(b.Budget) }
	case SortDeadline:
		return func(a, b model.Project) bool {
			// undated projects sort last
			if a.EndDate.IsZero() != b.EndDate.IsZero() {
				return b.EndDate.IsZero()
			}
			return a.EndDate.Before(b.EndDate)
		}
	case SortSpent:
		return func(a, b model.Project) bool { return a.Spent.GreaterThan(b.Spent) }
	default:
		return func(a, b model.Project) bool { return idAfter(a.ID, b.ID) }
	}
}

// idAfter compares numeric IDs numerically and anything else as text.
func idAfter(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return na > nb
	}
	if (errA == nil) != (errB == nil) {
		return errA == nil
	}
	return a > b
}

// SelectReports filters and sorts reports by their projects. Each report
// is carried through by position, so duplicate IDs cannot alias.
func SelectReports(reports []model.ProjectReport, q Query, key SortKey, reverse bool) []model.ProjectReport {
	match := q.matcher()
	var out []model.ProjectReport
	for _, r := range reports {
		if match(r.Project) {
			out = append(out, r)
		}
	}

	less := lessFor(key)
	sort.SliceStable(out, func(i, j int) bool {
		if reverse {
			return less(out[j].Project, out[i].Project)
		}
		return less(out[i].Project, out[j].Project)
	})
	return out
}
