// Package source discovers and parses YAML project fixture files.
package source

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/pburn/internal/budget"
	"github.com/theirongolddev/pburn/internal/model"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ParseResult holds the output of parsing a single fixture file.
type ParseResult struct {
	File        DiscoveredFile
	Projects    []model.Project
	ParseErrors int
	Problems    []error // one entry per skipped record
	Err         error   // file-level failure (unreadable or not YAML)
}

// ParseFile reads a fixture file and converts its records to projects.
//
// Only malformed values are rejected here. A missing start or end date is
// kept as the zero time so the engine can report it per project; a missing
// budget means an unfunded project. When spent is omitted it is the sum of
// the listed expenses.
func ParseFile(df DiscoveredFile) ParseResult {
	res := ParseResult{File: df}

	data, err := os.ReadFile(df.Path)
	if err != nil {
		res.Err = err
		return res
	}

	var raw RawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		res.Err = fmt.Errorf("decoding %s: %w", df.Path, err)
		return res
	}

	for i, rp := range raw.Projects {
		p, problems, err := convertProject(df, i, rp)
		for _, perr := range problems {
			res.ParseErrors++
			res.Problems = append(res.Problems, perr)
		}
		if err != nil {
			res.ParseErrors++
			res.Problems = append(res.Problems, err)
			continue
		}
		res.Projects = append(res.Projects, p)
	}

	return res
}

func convertProject(df DiscoveredFile, idx int, rp RawProject) (model.Project, []error, error) {
	p := model.Project{
		ID:          strings.TrimSpace(rp.ID),
		Title:       firstNonEmpty(rp.Title, rp.Name),
		Description: rp.Description,
		Client:      rp.Client,
		Category:    rp.Category,
		Status:      model.ParseStatus(strings.ToLower(strings.TrimSpace(rp.Status))),
		Budget:      decimal.Zero,
		FilePath:    df.Path,
	}
	if p.ID == "" {
		p.ID = fmt.Sprintf("%s-%d", df.Name, idx+1)
	}
	wrap := func(err error) error {
		return fmt.Errorf("%s: project %s: %w", df.Path, p.ID, err)
	}

	var err error
	if b := firstNonEmpty(rp.Budget, rp.TotalBudget); b != "" {
		if p.Budget, err = budget.ParseAmount(budget.FieldBudget, b); err != nil {
			return p, nil, wrap(err)
		}
	}
	if p.StartDate, err = optionalDate(budget.FieldStartDate, rp.StartDate); err != nil {
		return p, nil, wrap(err)
	}
	if p.EndDate, err = optionalDate(budget.FieldEndDate, firstNonEmpty(rp.EndDate, rp.DueDate)); err != nil {
		return p, nil, wrap(err)
	}

	var problems []error
	sum := decimal.Zero
	for j, re := range rp.Expenses {
		e, err := convertExpense(p.ID, j, re)
		if err != nil {
			problems = append(problems, wrap(err))
			continue
		}
		sum = sum.Add(e.Amount)
		p.Expenses = append(p.Expenses, e)
	}

	if strings.TrimSpace(rp.Spent) == "" {
		p.Spent = sum
	} else if p.Spent, err = budget.ParseAmount(budget.FieldSpent, rp.Spent); err != nil {
		return p, problems, wrap(err)
	}

	return p, problems, nil
}

func convertExpense(projectID string, idx int, re RawExpense) (model.Expense, error) {
	e := model.Expense{
		ID:          strings.TrimSpace(re.ID),
		ProjectID:   projectID,
		Description: re.Description,
		Category:    re.Category,
	}
	if e.ID == "" {
		e.ID = fmt.Sprintf("%s-e%d", projectID, idx+1)
	}

	var err error
	if e.Amount, err = budget.ParseAmount("expense "+e.ID+" amount", re.Amount); err != nil {
		return e, err
	}
	if e.Date, err = budget.ParseDate("expense "+e.ID+" date", re.Date); err != nil {
		return e, err
	}
	return e, nil
}

func optionalDate(field, s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return budget.ParseDate(field, s)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
